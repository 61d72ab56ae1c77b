package model

import (
	"reflect"
	"testing"
)

func TestMultiValueRoundTrip(t *testing.T) {
	values := []string{"radio", "social media", "door-to-door"}

	encoded, err := EncodeMultiValue(values)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodeMultiValue(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, values) {
		t.Errorf("round trip changed values: got %v, want %v", decoded, values)
	}
}

func TestDecodeMultiValueRejectsScalar(t *testing.T) {
	if _, err := DecodeMultiValue("yes"); err == nil {
		t.Error("expected error decoding a scalar answer")
	}
}

func TestIsMultiValue(t *testing.T) {
	encoded, err := EncodeMultiValue([]string{"a", "b"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	multi := &SurveyResponse{Value: encoded}
	if !multi.IsMultiValue() {
		t.Error("encoded multi-select should be detected as multi value")
	}

	scalar := &SurveyResponse{Value: "yes"}
	if scalar.IsMultiValue() {
		t.Error("scalar answer should not be detected as multi value")
	}
}
