package browser

import (
	"math"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

// Cookie is a browser cookie detached from any CDP connection so it can move between browsers.
// Every attribute the browser accepts back on SetCookies is carried. Size is derived
// from name and value and is not copied.
type Cookie struct {
	Name         string
	Value        string
	Domain       string
	Path         string
	Expires      float64 // seconds since epoch, ignored for session cookies
	HTTPOnly     bool
	Secure       bool
	Session      bool
	SameSite     string
	Priority     string
	SourceScheme string
	SourcePort   int64
	PartitionKey *PartitionKey // nil for unpartitioned cookies
}

// PartitionKey scopes a partitioned (CHIPS) cookie to a top-level site.
type PartitionKey struct {
	TopLevelSite         string
	HasCrossSiteAncestor bool
}

func fromNetwork(c *network.Cookie) Cookie {
	return Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		Session:  c.Session,
		SameSite: string(c.SameSite),

		Priority:     string(c.Priority),
		SourceScheme: string(c.SourceScheme),
		SourcePort:   c.SourcePort,
		PartitionKey: partitionKeyFromNetwork(c.PartitionKey),
	}
}

func partitionKeyFromNetwork(k *network.CookiePartitionKey) *PartitionKey {
	if k == nil {
		return nil
	}
	return &PartitionKey{TopLevelSite: k.TopLevelSite, HasCrossSiteAncestor: k.HasCrossSiteAncestor}
}

func (c Cookie) param() *network.CookieParam {
	p := &network.CookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: network.CookieSameSite(c.SameSite),

		Priority:     network.CookiePriority(c.Priority),
		SourceScheme: network.CookieSourceScheme(c.SourceScheme),
	}
	// negative ports mean the browser did not record one
	if c.SourcePort > 0 {
		p.SourcePort = c.SourcePort
	}
	if c.PartitionKey != nil {
		p.PartitionKey = &network.CookiePartitionKey{
			TopLevelSite:         c.PartitionKey.TopLevelSite,
			HasCrossSiteAncestor: c.PartitionKey.HasCrossSiteAncestor,
		}
	}
	if !c.Session && c.Expires > 0 {
		sec, frac := math.Modf(c.Expires)
		expires := cdp.TimeSinceEpoch(time.Unix(int64(sec), int64(frac*float64(time.Second))))
		p.Expires = &expires
	}
	return p
}
