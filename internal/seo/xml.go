package seo

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []xmlURL `xml:"url"`
}

type xmlURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// RenderXML serializes entries into a sitemaps.org urlset document.
func RenderXML(entries []Entry) ([]byte, error) {
	set := xmlURLSet{Xmlns: sitemapNamespace, URLs: make([]xmlURL, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, xmlURL{
			Loc:        e.URL,
			LastMod:    e.LastModified.Format(time.RFC3339),
			ChangeFreq: string(e.ChangeFrequency),
			Priority:   strconv.FormatFloat(e.Priority, 'f', -1, 64),
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
