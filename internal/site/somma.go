package site

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/inmodata/inmoharvest/internal/fetch"
	"github.com/inmodata/inmoharvest/internal/model"
)

var sommaUnitsRe = regexp.MustCompile(`(?i)(\d+)\s+Unidades?\s+disponibles`)

// Somma harvests the Somma Plaza Ñuñoa floor-plan listing. The site sits
// behind aggressive bot detection, so the stealth tier is enabled; all
// data lives on the listing page itself and no detail enrichment is needed.
type Somma struct{}

// NewSomma creates the somma adapter.
func NewSomma() *Somma { return &Somma{} }

func (s *Somma) Name() string { return "somma_nunoa" }

func (s *Somma) DefaultStartURL() string {
	return "https://www.sommaplazanunoa.cl/santiago/somma-plaza-%C3%B1u%C3%B1oa/conventional/"
}

func (s *Somma) FetchOptions() fetch.Options {
	return fetch.Options{AllowStealth: true}
}

// Extract parses the floor-plan cards: one property per card, each with a
// single typology unit.
func (s *Somma) Extract(pageHTML string) ([]model.Property, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, eris.Wrap(err, "somma: parse listing page")
	}

	var props []model.Property
	doc.Find(".fp-group .fp-card").Each(func(_ int, card *goquery.Selection) {
		title := cleanText(card.Find(".inner-card-container .fp-title").First().Text())
		beds, baths := sommaBedBath(card)

		area := ""
		if after := cleanText(card.Find("ul.fp-details li.dynamic-text .dynamic-text-after").First().Text()); after != "" {
			if v := firstNum(after); v != "" {
				area = v + " m2"
			}
		}

		price := cleanText(card.Find(".fee-transparency-wrapper .fee-transparency-text").First().Text())

		availability := cleanText(card.Find(".right-content .availability").First().Text())
		if availability == "" {
			availability = cleanText(card.Find(".availability").First().Text())
		}

		link := ""
		if a := card.Find(".right-content a.primary.btn[href]").First(); a.Length() > 0 {
			link, _ = a.Attr("href")
		}

		props = append(props, model.Property{
			Operator:  s.Name(),
			Name:      title,
			Price:     price,
			Link:      link,
			ScrapedAt: model.Now(),
			Units: []model.Unit{{
				Bedrooms:       beds,
				Bathrooms:      baths,
				AreaM2:         area,
				Price:          price,
				UnitsAvailable: sommaUnits(availability),
				Link:           link,
			}},
		})
	})
	return props, nil
}

// DetailURL always reports false: every field is on the listing page.
func (s *Somma) DetailURL(model.Property) (string, bool) { return "", false }

// MergeDetail is never called; see DetailURL.
func (s *Somma) MergeDetail(p model.Property, _ string) (model.Property, error) {
	return p, nil
}

// sommaBedBath pulls the first two bare numbers out of the abbreviated
// details row ("2 Dormitorio / 1 Baño").
func sommaBedBath(card *goquery.Selection) (beds, baths string) {
	var nums []string
	card.Find("ul.fp-details li.dynamic-text .small-abbr").Each(func(_ int, s *goquery.Selection) {
		txt := cleanText(s.Text())
		if txt != "" && txt == firstInt(txt, "") {
			nums = append(nums, txt)
		}
	})
	if len(nums) >= 1 {
		beds = nums[0]
	}
	if len(nums) >= 2 {
		baths = nums[1]
	}
	return beds, baths
}

// sommaUnits maps availability text to a unit count: "3 Unidades
// disponibles" gives 3, a "Disponible <fecha>" phrase counts as 1,
// anything else is 0.
func sommaUnits(availability string) string {
	if availability == "" {
		return "0"
	}
	if m := sommaUnitsRe.FindStringSubmatch(availability); m != nil {
		return m[1]
	}
	if strings.Contains(strings.ToLower(availability), "disponible") {
		return "1"
	}
	return "0"
}
