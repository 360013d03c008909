package ranking

import (
	"net/url"
	"strings"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"golang.org/x/text/language"
)

// compositeCodes maps jurisdictions that are not ISO 3166 countries to the
// code their flag is displayed with.
var compositeCodes = map[string]string{
	"GBRTENW": "GB-ENG",
	"GBR_SCO": "GB-SCT",
	"GBR_NIR": "GB-NIR",
	"DEUTNP":  "DE",
	"NZL_NP":  "NZ",
}

const usStatePrefix = "USA-"

// ISO2 returns the display code of a jurisdiction: the ISO 3166-1 alpha-2
// code for countries, a subdivision code for US states and the fixed codes
// of composite jurisdictions. Unknown codes return "".
func ISO2(iso3 string) string {
	if code, ok := compositeCodes[iso3]; ok {
		return code
	}
	if strings.HasPrefix(iso3, usStatePrefix) {
		return "US-" + strings.TrimPrefix(iso3, usStatePrefix)
	}
	region, err := language.ParseRegion(iso3)
	if err != nil {
		return ""
	}
	return region.String()
}

// ExplorerHref returns the link from a ranking row to the explorer view of
// the jurisdiction.
func ExplorerHref(iso3 string) string {
	return constants.ExplorerPath + "?c=" + url.QueryEscape(iso3)
}
