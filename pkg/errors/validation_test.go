package errors

import (
	"strings"
	"testing"
)

func TestValidateObjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "M 31", false},
		{"ngc", "NGC 4151", false},
		{"survey designation", "2MASS J00424433+4116074", false},
		{"greek letter", "alf Cen A", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"control character", "M31\x01", true},
		{"null byte", "M31\x00", true},
		{"too long", strings.Repeat("a", 257), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateADQL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple select", "SELECT TOP 10 * FROM gaiadr3.gaia_source", false},
		{"multiline", "SELECT ra, dec\nFROM basic\nWHERE otype = 'G'", false},
		{"tabs", "SELECT\tra FROM basic", false},
		{"empty", "", true},
		{"whitespace only", " \n ", true},
		{"null byte", "SELECT\x00", true},
		{"control character", "SELECT \x07 FROM x", true},
		{"too long", "SELECT " + strings.Repeat("x", 100001), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateADQL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateADQL error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"tap schema qualified", "gaiadr3.gaia_source", false},
		{"vizier id", "II/246/out", false},
		{"vizier plus", "J/ApJ/710/1776/table2", false},
		{"empty", "", true},
		{"embedded space", "gaia source", true},
		{"control", "tbl\x00", true},
		{"too long", strings.Repeat("t", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTableName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://gea.esac.esa.int/tap-server/tap", false},
		{"http", "http://localhost:8080/tap", false},
		{"empty", "", true},
		{"ftp", "ftp://archive.example.org", true},
		{"bare host", "gea.esac.esa.int", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
