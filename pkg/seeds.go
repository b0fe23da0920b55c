package frontier

import (
	"bufio"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/devraulu/martiball/pkg/process"
)

var (
	ErrNoSeeds = errors.New("no seeds loaded")
)

// DefaultListingURLs are the competition schedules of the Vienna football
// association and the national leagues playing in Vienna.
var DefaultListingURLs = []string{
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227113?ADMIRAL-Bundesliga-Grunddurchgang",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227112?ADMIRAL-2-Liga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226510?Regionalliga-Ost",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226635?Wiener-Stadtliga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226684?2-Landesliga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226695?Oberliga-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226591?Oberliga-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227122?Oberliga-A-Reserve",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227123?Oberliga-B-Reserve",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226633?1-Klasse-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226627?1-Klasse-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227124?1-Klasse-A-Reserve",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227125?1-Klasse-B-Reserve",
	"https://www.oefb.at/oefb/Bewerb/Spielplan/226894?ADMIRAL-Frauen-Bundesliga-Grunddurchgang",
	"https://www.oefb.at/oefb/Bewerb/Spielplan/226892?Frauen-Future-League",
	"https://www.oefb.at/oefb/Bewerb/Spielplan/226893?2-Frauen-Bundesliga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226649?Wiener-Frauen-Landesliga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226662?Frauen-1-Klasse",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226664?Frauen-2-Klasse-",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226672?Frauen-Newcomer-Liga",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226618?DSG-LIGA",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226621?DSG-Oberliga-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226646?DSG-Oberliga-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226631?DSG-Unterliga-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226682?DSG-Unterliga-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226610?DSG-1-Klasse-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226615?DSG-1-Klasse-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226694?DSG-2-Klasse-A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226678?DSG-2-Klasse-B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/227359?DSG-Reserve",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226697?DSG-Cup",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226690?DSG-Frauen-Maedchen",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226665?DSG-Senioren-1A",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226673?DSG-Senioren-1B",
	"https://www.oefb.at/bewerbe/Bewerb/Spielplan/226652?DSG-Senioren-2",
}

// LoadSeeds reads listing URLs from path, one per line. Blank lines and
// lines starting with '#' are ignored, duplicates dropped.
func LoadSeeds(path string) ([]string, error) {
	slog.Info("loading seeds", "path", path)
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var urls []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		url := strings.TrimSpace(scanner.Text())
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		normalized, err := process.Normalize(url)
		if err != nil {
			slog.Error("couldn't normalize seed", slog.String("seed", url), slog.Any("err", err))
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		urls = append(urls, normalized)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(urls) == 0 {
		return nil, ErrNoSeeds
	}

	slog.Info("loaded seeds", "count", len(urls))
	return urls, nil
}
