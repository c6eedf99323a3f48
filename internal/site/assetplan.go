package site

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/inmodata/inmoharvest/internal/fetch"
	"github.com/inmodata/inmoharvest/internal/model"
)

const assetplanBase = "https://www.assetplan.cl"

var assetplanUnitsRe = regexp.MustCompile(`Ver\s+([\d\+]+)\s+disponibles?`)

// Assetplan harvests assetplan.cl rental building listings. The listing is
// server-rendered, so the plain tier usually suffices; stealth and browser
// are allowed as fallback.
type Assetplan struct{}

// NewAssetplan creates the assetplan adapter.
func NewAssetplan() *Assetplan { return &Assetplan{} }

func (a *Assetplan) Name() string { return "assetplan" }

func (a *Assetplan) DefaultStartURL() string {
	return assetplanBase + "/arriendo/departamento/-70.62983131583,-33.472787945848?page=1&servicioPro=1"
}

func (a *Assetplan) FetchOptions() fetch.Options {
	return fetch.Options{AllowStealth: true, AllowBrowser: true}
}

// Extract parses the listing cards of one page.
func (a *Assetplan) Extract(pageHTML string) ([]model.Property, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, eris.Wrap(err, "assetplan: parse listing page")
	}

	var props []model.Property
	doc.Find("div.w-full.px-4.py-2.mt-2.bg-white").Each(func(_ int, card *goquery.Selection) {
		nameTag := card.Find("a.block.overflow-hidden.text-lg.font-bold").First()
		if nameTag.Length() == 0 {
			nameTag = card.Find("a[href]").First()
		}

		link, _ := nameTag.Attr("href")
		props = append(props, model.Property{
			Operator:  a.Name(),
			Name:      cleanText(nameTag.Text()),
			Address:   cleanText(card.Find("span.mb-1.text-sm.text-neutral-500").First().Text()),
			Price:     cleanText(card.Find("p.font-bold").First().Text()),
			Link:      absURL(assetplanBase, link),
			ScrapedAt: model.Now(),
		})
	})
	return props, nil
}

// DetailURL is the building page linked from the listing card.
func (a *Assetplan) DetailURL(p model.Property) (string, bool) {
	return p.Link, p.Link != ""
}

// MergeDetail fills amenities and apartment typologies from the building page.
func (a *Assetplan) MergeDetail(p model.Property, detailHTML string) (model.Property, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		return p, eris.Wrap(err, "assetplan: parse detail page")
	}

	doc.Find("div.grid.max-w-screen-lg.grid-cols-1.px-3.mx-auto.text-gray-800").First().
		Find("div.flex.flex-row.items-center p.text-sm").Each(func(_ int, s *goquery.Selection) {
		if txt := cleanText(s.Text()); txt != "" {
			p.Amenities = append(p.Amenities, txt)
		}
	})

	doc.Find("div.grid.gap-6.px-4").First().Find("div.flex.border").Each(func(_ int, card *goquery.Selection) {
		info := card.Find("div.flex.flex-col.justify-between.w-full.p-4").First()
		if info.Length() == 0 {
			info = card
		}

		var unit model.Unit

		bedsRow := info.Find("div.flex.flex-row.text-sm.font-semibold").First()
		ps := bedsRow.Find("p")
		if ps.Length() >= 2 && strings.Contains(strings.ToLower(ps.Eq(1).Text()), "dormitorio") {
			unit.Bedrooms = cleanText(ps.Eq(0).Text())
		}

		unit.Bathrooms = cleanText(info.Find("div.inline-flex.items-center.space-x-1 p").First().Text())

		info.Find("div.inline-flex.items-center").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(strings.ToLower(s.Text()), "útiles") {
				unit.AreaM2 = cleanText(s.Find("p").First().Text())
				return false
			}
			return true
		})

		unit.Price = cleanText(info.Find("p.text-lg.font-semibold.leading-7").First().Text())

		btn := info.Find("a.bg-blue-600").First()
		if btn.Length() > 0 {
			if m := assetplanUnitsRe.FindStringSubmatch(btn.Text()); m != nil {
				unit.UnitsAvailable = m[1]
			}
			if href, ok := btn.Attr("href"); ok {
				unit.Link = absURL(assetplanBase, href)
			}
		}
		if unit.Link == "" {
			unit.Link = p.Link
		}

		p.Units = append(p.Units, unit)
	})

	return p, nil
}
