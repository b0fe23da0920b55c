package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAddressParts(t *testing.T) {
	tests := []struct {
		addr string
		want AddressParts
	}{
		{"Hauptstraße 1, 1010 Wien", AddressParts{"Hauptstraße 1", "1010", "Wien"}},
		{"Sportplatzweg, 2345 Musterdorf", AddressParts{"Sportplatzweg", "2345", "Musterdorf"}},
		{"Hauptstraße 1, 1010 Wien, Österreich", AddressParts{"Hauptstraße 1", "1010", "Wien"}},
		{"Gersthofer Straße 1 1180 Wien", AddressParts{"Gersthofer Straße 1 1180 Wien", "1180", "Wien"}},
		{"Kendlerstraße 40, 1140 Wien-Penzing.", AddressParts{"Kendlerstraße 40", "1140", "Wien-Penzing"}},
		{"Platz 2, 1100 Wien 10", AddressParts{"Platz 2", "1100", "Wien"}},
		{"Sportzentrum, Wien, 1220 Wien", AddressParts{"Sportzentrum", "1220", "Wien"}},
		{"Am Platz 12, Wien", AddressParts{Street: "Am Platz 12"}},
		{"Weg 3, 12345", AddressParts{Street: "Weg 3"}},
		{" , ,", AddressParts{}},
		{"", AddressParts{}},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractAddressParts(tt.addr))
		})
	}
}
