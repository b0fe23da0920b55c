package miner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailHTML = `<html><body>
<div class="round_overview_container">
  <div class="round"> 12. Runde </div>
  <div class="date">Sa. 13.09.2025</div>
  <div class="teams">
    <a href="/vereine/Verein/1?Gersthofer-SV" title="Gersthofer SV"><img src="logo.png"></a>
    <span class="result">-:-</span>
    <a href="https://www.oefb.at/vereine/Verein/2?SC-Test">  SC   Test </a>
  </div>
  <div class="detail"><span>Schiedsrichter:</span><span>Max Muster</span></div>
  <div class="detail"><span> Spielbeginn: </span> <i></i> <span>18:30</span></div>
</div>
<div class="game_place_content_1">
  <h4>Spielinfo</h4>
  <p>nicht diese</p>
</div>
<div class="game_place_content_1">
  <h4>Adresse &amp; Anfahrt</h4>
  <h5 class="highlight">Sportplatz Gersthof</h5>
  <p>Gersthofer Straße 1<br>1180 Wien</p>
</div>
</body></html>`

func TestParseDetail(t *testing.T) {
	d, err := ParseDetail(detailHTML, "https://www.oefb.at/bewerbe/Spiel/1?A-B")
	require.NoError(t, err)

	assert.Equal(t, "12. Runde", d.Round)
	assert.Equal(t, "Sa. 13.09.2025", d.Date)
	assert.Equal(t, "18:30", d.KickoffTime)
	assert.Equal(t, []Team{
		{Name: "Gersthofer SV", Link: "https://www.oefb.at/vereine/Verein/1?Gersthofer-SV"},
		{Name: "SC Test", Link: "https://www.oefb.at/vereine/Verein/2?SC-Test"},
	}, d.Teams)
	assert.Equal(t, "Sportplatz Gersthof", d.VenueName)
	assert.Equal(t, "Gersthofer Straße 1, 1180 Wien", d.Address)
}

func TestParseDetail_Empty(t *testing.T) {
	d, err := ParseDetail("<html><body><p>Wartung</p></body></html>", "https://www.oefb.at/")
	require.NoError(t, err)
	assert.Equal(t, Detail{}, d)
}

func TestParseKickoff(t *testing.T) {
	tests := []struct {
		date, start string
		want        time.Time
	}{
		{"13.09.2025", "18:30", time.Date(2025, 9, 13, 18, 30, 0, 0, time.UTC)},
		{"Sa. 3.9.2025", "9:05", time.Date(2025, 9, 3, 9, 5, 0, 0, time.UTC)},
		{"13.09.2025", "", time.Time{}},
		{"", "18:30", time.Time{}},
		{"31.02.2025", "18:30", time.Time{}},
		{"verschoben", "k.A.", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.date+" "+tt.start, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKickoff(tt.date, tt.start))
		})
	}
}

func TestGender(t *testing.T) {
	assert.Equal(t, "Frau", Gender("ADMIRAL Frauen Bundesliga"))
	assert.Equal(t, "Mann", Gender("Wiener Stadtliga"))
	assert.Equal(t, "Mann", Gender(""))
	assert.Equal(t, "Mann", Gender("frauen cup"), "match is case-sensitive")
}
