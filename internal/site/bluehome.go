package site

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/inmodata/inmoharvest/internal/fetch"
	"github.com/inmodata/inmoharvest/internal/model"
)

const bluehomeBase = "https://bluehome.cl"

// Bluehome harvests bluehome.cl building listings. The listing grid only
// exists in the JS-rendered DOM, so the adapter demands the browser tier.
type Bluehome struct{}

// NewBluehome creates the bluehome adapter.
func NewBluehome() *Bluehome { return &Bluehome{} }

func (b *Bluehome) Name() string { return "bluehome" }

func (b *Bluehome) DefaultStartURL() string { return bluehomeBase + "/departamento" }

func (b *Bluehome) FetchOptions() fetch.Options {
	return fetch.Options{ForceBrowser: true}
}

// Extract parses the rendered listing grid: one container per building,
// with its typology rows.
func (b *Bluehome) Extract(pageHTML string) ([]model.Property, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, eris.Wrap(err, "bluehome: parse listing page")
	}

	var props []model.Property
	doc.Find("div.row.p-0").Each(func(_ int, container *goquery.Selection) {
		info := container.Find("div.info").First()
		if info.Length() == 0 {
			return
		}

		prop := model.Property{
			Operator:  b.Name(),
			Name:      cleanText(info.Find("h4.text-2.mb-1").First().Text()),
			Address:   cleanText(info.Find("p.address.mt-2").First().Text()),
			Price:     cleanText(info.Find("p.price.mt-2").First().Text()),
			ScrapedAt: model.Now(),
		}

		container.Find("div.building-rooms div.building-rooms--items").Each(func(_ int, item *goquery.Selection) {
			a := item.Find("a").First()
			if a.Length() == 0 {
				return
			}

			// Row text reads like "2 Dormitorios | Ver unidades (3)".
			text := cleanText(a.Text())
			dormsToken, _, _ := strings.Cut(text, "|")

			href, _ := a.Attr("href")
			link := absURL(bluehomeBase, href)
			if prop.Link == "" {
				prop.Link = link
			}

			prop.Units = append(prop.Units, model.Unit{
				Bedrooms:       firstInt(dormsToken, ""),
				UnitsAvailable: firstInt(a.Find("span.d-inline-block").First().Text(), ""),
				Link:           link,
			})
		})

		props = append(props, prop)
	})
	return props, nil
}

// DetailURL is the first typology's page; it carries both the building
// amenities and the typology features.
func (b *Bluehome) DetailURL(p model.Property) (string, bool) {
	if len(p.Units) == 0 {
		return "", false
	}
	return p.Units[0].Link, p.Units[0].Link != ""
}

// MergeDetail fills building amenities and the first typology's
// bedroom/bathroom/area features from its detail page.
func (b *Bluehome) MergeDetail(p model.Property, detailHTML string) (model.Property, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return p, eris.Wrap(err, "bluehome: parse detail page")
	}

	doc.Find("ul.rework__description-amenities li span").Each(func(_ int, s *goquery.Selection) {
		if txt := cleanText(s.Text()); txt != "" {
			p.Amenities = append(p.Amenities, txt)
		}
	})

	features := doc.Find("ul.rework__features-list").First()
	if features.Length() > 0 && len(p.Units) > 0 {
		unit := &p.Units[0]
		if bed := features.Find("li.rework__feature--bed span.text").First(); bed.Length() > 0 {
			unit.Bedrooms = firstInt(bed.Text(), unit.Bedrooms)
		}
		if bath := features.Find("li.rework__feature--bathtub span.text").First(); bath.Length() > 0 {
			unit.Bathrooms = firstInt(bath.Text(), "")
		}
		if m2 := features.Find("li.rework__feature--texture span.text").First(); m2.Length() > 0 {
			if v := firstNum(m2.Text()); v != "" {
				unit.AreaM2 = v + " m2"
			}
		}
	}

	return p, nil
}
