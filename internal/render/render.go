package render

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-wordwrap"

	"github.com/samvad-hq/locinfo/internal/domain"
)

// Package render formats a LocationInfo for the terminal.

const (
	notAvailable = "n/a"
	titleWidth   = 60
	excerptRunes = 160
)

// Report writes the location table. now is the reference instant for the capital's local time.
func Report(w io.Writer, info *domain.LocationInfo, now time.Time) error {
	if info == nil {
		return fmt.Errorf("render: location info is nil")
	}
	c := info.Country

	rows := [][2]string{
		{"Country", orNA(c.Name)},
		{"Capital", orNA(c.Capital)},
		{"Region", orNA(c.Subregion)},
		{"Languages", languages(c.Languages)},
		{"Population", humanize.Comma(c.Population)},
		{"Currency rates", currencyRates(info.CurrencyRates, info.CurrencyBase)},
		{"Weather", weather(info.Weather)},
		{"Area", area(c.Area)},
		{"Capital coordinates", coordinates(info.Capital)},
		{"Local time", localTime(info.Weather, now)},
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// TopNews writes up to n articles in cache order and reports how many were written.
func TopNews(w io.Writer, articles []domain.Article, n int) (int, error) {
	if n > len(articles) {
		n = len(articles)
	}
	if n < 0 {
		n = 0
	}
	for i, a := range articles[:n] {
		lines := wrap(orNA(a.Title), titleWidth)
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, lines[0]); err != nil {
			return i, err
		}
		for _, l := range lines[1:] {
			fmt.Fprintf(w, "   %s\n", l)
		}

		byline := orNA(a.Author)
		if !a.PublishedAt.IsZero() {
			byline += ", " + humanize.Time(a.PublishedAt)
		}
		fmt.Fprintf(w, "   %s\n", byline)
		if ex := excerpt(a.Description); ex != "" {
			fmt.Fprintf(w, "   %s\n", ex)
		}
		if _, err := fmt.Fprintf(w, "   %s\n", orNA(a.URL)); err != nil {
			return i, err
		}
	}
	return n, nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func languages(langs []domain.Language) string {
	parts := make([]string, 0, len(langs))
	for _, l := range domain.UniqueLanguages(langs) {
		if l.NativeName != "" && l.NativeName != l.Name {
			parts = append(parts, fmt.Sprintf("%s (%s)", l.Name, l.NativeName))
			continue
		}
		parts = append(parts, l.Name)
	}
	return orNA(strings.Join(parts, ", "))
}

func currencyRates(rates map[string]float64, base string) string {
	if len(rates) == 0 {
		return notAvailable
	}
	codes := make([]string, 0, len(rates))
	for code := range rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	base = strings.ToUpper(base)
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s = %.2f %s", code, roundHalfUp(rates[code], 2), base))
	}
	return strings.Join(parts, ", ")
}

// roundHalfUp rounds to the given decimals with ties away from zero.
func roundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func weather(w *domain.Weather) string {
	if w == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.1f °C, %s, visibility %d m, wind %.1f m/s, humidity %d%%",
		w.Temp, orNA(w.Description), w.Visibility, w.WindSpeed, w.Humidity)
}

func area(a *float64) string {
	if a == nil {
		return notAvailable
	}
	return humanize.CommafWithDigits(*a, 1) + " km²"
}

func coordinates(c *domain.City) string {
	if c == nil {
		return notAvailable
	}
	return fmt.Sprintf("lat %.4f, lon %.4f", c.Latitude, c.Longitude)
}

// localTime shifts now by the capital's UTC offset as reported with the weather.
func localTime(w *domain.Weather, now time.Time) string {
	if w == nil {
		return notAvailable
	}
	zone := time.FixedZone("", w.Timezone)
	local := now.In(zone)
	return local.Format("Mon Jan 2 15:04:05 2006") + " (UTC" + local.Format("-07:00") + ")"
}

// excerpt strips markup from an article description and shortens it.
func excerpt(desc string) string {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return ""
	}
	text := desc
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) <= excerptRunes {
		return text
	}
	cut := string(runes[:excerptRunes])
	if i := strings.LastIndex(cut, " "); i > excerptRunes/2 {
		cut = cut[:i]
	}
	return cut + "…"
}

// wrap breaks s into lines of at most width characters on word boundaries.
// A single word longer than width stays on its own line.
func wrap(s string, width int) []string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return []string{s}
	}
	return strings.Split(wordwrap.WrapString(s, uint(width)), "\n")
}
