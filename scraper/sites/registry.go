package sites

import (
	"immo-scraper/config"
	"immo-scraper/scraper"
	"immo-scraper/utils"
)

// All returns a fresh instance of every supported site, in crawl order.
func All() []scraper.Site {
	return []scraper.Site{
		newKermarrec(),
		newCentury21(),
		newBienici(),
		newFigaro(),
		newBlot(),
		newCarnot(),
		newDiard(),
		newLogicImmo(),
		newOuestFrance(),
		newFnaim(),
		newEra(),
		newImmonot(),
	}
}

// Configure applies the sources file to All: disabled sites are dropped and
// seed overrides replace the built-in seeds.
func Configure(sf *config.SourcesFile, logger *utils.Logger) []scraper.Site {
	var out []scraper.Site
	for _, site := range All() {
		o, ok := sf.Override(scraper.SiteKey(site))
		if !ok {
			out = append(out, site)
			continue
		}
		if o.Disabled {
			logger.Info("[sites] %s disabled by sources file", site.Name())
			continue
		}
		if len(o.Seeds) > 0 {
			if so, ok := site.(scraper.SeedOverrider); ok {
				so.OverrideSeeds(o.Seeds)
				logger.Info("[sites] %s seeds overridden (%d)", site.Name(), len(o.Seeds))
			}
		}
		out = append(out, site)
	}
	return out
}

// ByName returns the site of list designated by name, by key or display name.
func ByName(list []scraper.Site, name string) (scraper.Site, bool) {
	for _, s := range list {
		if scraper.Matches(s, name) {
			return s, true
		}
	}
	return nil, false
}
