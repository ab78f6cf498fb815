package models

// PageType tags a crawl task with the handler it needs.
type PageType int

const (
	PageList PageType = iota
	PageDetail
)

func (p PageType) String() string {
	if p == PageDetail {
		return "detail"
	}
	return "list"
}

// CrawlTask is one unit of work inside a single crawl run.
type CrawlTask struct {
	URL     string
	Key     string
	Type    PageType
	Attempt int
	// Seed marks the first list page of a source, where search filters apply.
	Seed bool
}
