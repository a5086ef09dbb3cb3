package scanners

import (
	"path/filepath"

	"github.com/arthur-debert/popctl/pkg/logging"
	"github.com/beevik/etree"
)

// appstreamGlob locates the per-remote appstream catalogs shipped by
// the system flatpak installation.
const appstreamGlob = "/var/lib/flatpak/appstream/*/*/appstream.xml"

// loadAppstreamSummaries maps application IDs to their appstream
// summaries. Enrichment is best effort: any failure yields an empty
// map and the scan carries on without descriptions.
func loadAppstreamSummaries() map[string]string {
	summaries := make(map[string]string)

	catalogs, err := filepath.Glob(appstreamGlob)
	if err != nil || len(catalogs) == 0 {
		return summaries
	}

	for _, catalog := range catalogs {
		mergeAppstreamCatalog(summaries, catalog)
	}
	return summaries
}

func mergeAppstreamCatalog(summaries map[string]string, path string) {
	logger := logging.GetLogger("scanners.appstream")

	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		logger.Debug().Err(err).Str("path", path).Msg("Skipping unreadable appstream catalog")
		return
	}

	root := doc.Root()
	if root == nil {
		return
	}

	for _, component := range root.SelectElements("component") {
		id := component.SelectElement("id")
		summary := component.SelectElement("summary")
		if id == nil || summary == nil {
			continue
		}
		name := id.Text()
		if name == "" || summaries[name] != "" {
			continue
		}
		summaries[name] = summary.Text()
	}
}

// appstreamSummariesFromFile is the test seam for catalog parsing.
func appstreamSummariesFromFile(path string) map[string]string {
	summaries := make(map[string]string)
	mergeAppstreamCatalog(summaries, path)
	return summaries
}
