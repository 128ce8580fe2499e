// Package useragent maps a raw User-Agent header to coarse device, browser
// and operating system labels using ordered substring rules.
package useragent

import "strings"

const Unknown = "unknown"

const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
	DeviceDesktop = "desktop"
)

// Info is the classification result.
type Info struct {
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

type rule struct {
	label  string
	anyOf  []string
	noneOf []string
}

func (r rule) matches(ua string) bool {
	for _, s := range r.noneOf {
		if strings.Contains(ua, s) {
			return false
		}
	}
	for _, s := range r.anyOf {
		if strings.Contains(ua, s) {
			return true
		}
	}
	return false
}

// Rules are evaluated top to bottom; the first match wins.
var (
	deviceRules = []rule{
		{label: DeviceMobile, anyOf: []string{"mobile"}},
		{label: DeviceTablet, anyOf: []string{"tablet", "ipad"}},
		{label: DeviceBot, anyOf: []string{"bot", "crawler"}},
	}
	browserRules = []rule{
		{label: "chrome", anyOf: []string{"chrome"}, noneOf: []string{"edg"}},
		{label: "firefox", anyOf: []string{"firefox"}},
		{label: "safari", anyOf: []string{"safari"}, noneOf: []string{"chrome"}},
		{label: "edge", anyOf: []string{"edg"}},
		{label: "opera", anyOf: []string{"opera"}},
	}
	osRules = []rule{
		{label: "windows", anyOf: []string{"windows"}},
		{label: "macos", anyOf: []string{"macintosh", "mac os"}},
		{label: "linux", anyOf: []string{"linux"}},
		{label: "android", anyOf: []string{"android"}},
		{label: "ios", anyOf: []string{"iphone", "ipad"}},
	}
)

// Classify never fails. An empty header yields Unknown on every axis.
func Classify(userAgent string) Info {
	if userAgent == "" {
		return Info{DeviceType: Unknown, Browser: Unknown, OS: Unknown}
	}
	ua := strings.ToLower(userAgent)
	return Info{
		DeviceType: firstMatch(deviceRules, ua, DeviceDesktop),
		Browser:    firstMatch(browserRules, ua, Unknown),
		OS:         firstMatch(osRules, ua, Unknown),
	}
}

func firstMatch(rules []rule, ua, fallback string) string {
	for _, r := range rules {
		if r.matches(ua) {
			return r.label
		}
	}
	return fallback
}
