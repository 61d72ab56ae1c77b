package repository

import (
	"campaign_call_backend/internal/model"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) Create(campaign *model.Campaign) error {
	return r.DB.Create(campaign).Error
}

func (r *CampaignRepository) FindByID(id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.DB.First(&campaign, id).Error
	return &campaign, err
}

func (r *CampaignRepository) FindActive() ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.DB.Where("active = ?", true).Order("id ASC").Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) FindByOwner(ownerID uint) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	err := r.DB.Where("owner_id = ?", ownerID).Order("id ASC").Find(&campaigns).Error
	return campaigns, err
}

func (r *CampaignRepository) Update(campaign *model.Campaign) error {
	return r.DB.Save(campaign).Error
}
