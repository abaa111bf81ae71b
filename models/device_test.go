package models

import "testing"

func TestNormalizeSerial(t *testing.T) {
	cases := map[string]string{
		"abc-123":      "ABC-123",
		"  sn001  ":    "SN001",
		"MiXeD-cAsE":   "MIXED-CASE",
		"":             "",
		"\tLT-2024 \n": "LT-2024",
	}
	for in, want := range cases {
		if got := NormalizeSerial(in); got != want {
			t.Errorf("NormalizeSerial(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidDeviceStatus(t *testing.T) {
	for _, s := range []string{DeviceAvailable, DeviceReserved, DeviceBorrowed, DeviceMaintenance} {
		if !ValidDeviceStatus(s) {
			t.Errorf("ValidDeviceStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "available", "Lost", "Pending"} {
		if ValidDeviceStatus(s) {
			t.Errorf("ValidDeviceStatus(%q) = true", s)
		}
	}
}
