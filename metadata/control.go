package metadata

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Control-XML literal documents recognized by process_control (spec §4.4).
// These are plain UTF-8 text, never magic-prefixed — IsItemStream returns
// false for all of them.
const (
	DocSubscribeVideo      = "<SubscribeVideo/>"
	DocSubscribeAudio      = "<SubscribeAudio/>"
	DocSubscribeMetadata   = "<SubscribeMetadata/>"
	DocTallyPreviewProgram = "<TallyPreviewProgram/>"
	DocTallyProgram        = "<TallyProgram/>"
	DocTallyPreview        = "<TallyPreview/>"
	DocTallyNone           = "<TallyNone/>"
	DocPreviewVideoOn      = "<PreviewVideoOn/>"
	DocPreviewVideoOff     = "<PreviewVideoOff/>"
)

// Quality is the ordered suggested-quality enum (spec §3: "the sender
// consults the highest hint received across all channels").
type Quality int

// Quality values in ascending order — Quality comparisons use their
// integer ordering directly.
const (
	QualityDefault Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
)

// ParseQuality parses a quality name as it appears in a SuggestedQuality
// document's Quality attribute.
func ParseQuality(name string) (Quality, error) {
	switch name {
	case "Default":
		return QualityDefault, nil
	case "Low":
		return QualityLow, nil
	case "Medium":
		return QualityMedium, nil
	case "High":
		return QualityHigh, nil
	default:
		return 0, fmt.Errorf("metadata: unknown quality %q", name)
	}
}

func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "Low"
	case QualityMedium:
		return "Medium"
	case QualityHigh:
		return "High"
	default:
		return "Default"
	}
}

// suggestedQualityXML and the other attribute-carrying documents below are
// parsed with encoding/xml since, unlike the fixed literal documents above,
// their attribute sets vary from message to message.
type suggestedQualityXML struct {
	XMLName xml.Name `xml:"SuggestedQuality"`
	Quality string   `xml:"Quality,attr"`
}

// SuggestedQuality parses a <SuggestedQuality Quality="…"/> document.
func SuggestedQuality(doc string) (Quality, error) {
	var v suggestedQualityXML
	if err := xml.Unmarshal([]byte(doc), &v); err != nil {
		return 0, fmt.Errorf("metadata: parsing SuggestedQuality: %w", err)
	}
	return ParseQuality(v.Quality)
}

// SenderInfo carries the sender's self-reported identity (spec §4.4:
// "Parse structured fields (name, vendor, …)").
type SenderInfo struct {
	Name    string
	Vendor  string
	Version string
}

type senderInfoXML struct {
	XMLName xml.Name `xml:"SenderInfo"`
	Name    string   `xml:"Name,attr"`
	Vendor  string   `xml:"Vendor,attr"`
	Version string   `xml:"Version,attr"`
}

// ParseSenderInfo parses a <SenderInfo Name="…" Vendor="…" Version="…"/>
// document. Any attribute may be absent.
func ParseSenderInfo(doc string) (SenderInfo, error) {
	var v senderInfoXML
	if err := xml.Unmarshal([]byte(doc), &v); err != nil {
		return SenderInfo{}, fmt.Errorf("metadata: parsing SenderInfo: %w", err)
	}
	return SenderInfo{Name: v.Name, Vendor: v.Vendor, Version: v.Version}, nil
}

// BuildSenderInfo renders info as a <SenderInfo .../> document.
func BuildSenderInfo(info SenderInfo) string {
	return fmt.Sprintf(`<SenderInfo Name=%q Vendor=%q Version=%q/>`, info.Name, info.Vendor, info.Version)
}

type redirectXML struct {
	XMLName xml.Name `xml:"Redirect"`
	Address string   `xml:"Address,attr"`
}

// ParseRedirect parses a <Redirect Address="host:port"/> document.
func ParseRedirect(doc string) (string, error) {
	var v redirectXML
	if err := xml.Unmarshal([]byte(doc), &v); err != nil {
		return "", fmt.Errorf("metadata: parsing Redirect: %w", err)
	}
	return v.Address, nil
}

// BuildRedirect renders address as a <Redirect Address="…"/> document.
func BuildRedirect(address string) string {
	return fmt.Sprintf(`<Redirect Address=%q/>`, address)
}

// BuildSuggestedQuality renders q as a <SuggestedQuality Quality="…"/>
// document.
func BuildSuggestedQuality(q Quality) string {
	return fmt.Sprintf(`<SuggestedQuality Quality=%q/>`, q.String())
}

// IsControlXML reports whether payload looks like a control-XML document
// rather than a typed-metadata item stream.
func IsControlXML(payload []byte) bool {
	return len(payload) > 0 && strings.HasPrefix(strings.TrimSpace(string(payload)), "<")
}
