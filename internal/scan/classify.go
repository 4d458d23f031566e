package scan

import (
	"net"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/qrtrace/server/internal/model"
)

// DeviceClass is what the recorder derives from a raw user-agent string.
type DeviceClass struct {
	DeviceType string
	Browser    string
	OS         string
}

// Classify parses a raw user-agent string into a device type and
// "Family Version" browser/OS labels. Anything that is neither mobile nor
// tablet counts as desktop; unparseable or empty strings degrade to desktop
// with empty labels rather than failing the scan.
func Classify(rawUA string) DeviceClass {
	cls := DeviceClass{DeviceType: model.DeviceDesktop}
	if strings.TrimSpace(rawUA) == "" {
		return cls
	}

	ua := useragent.Parse(rawUA)
	switch {
	case ua.Mobile:
		cls.DeviceType = model.DeviceMobile
	case ua.Tablet:
		cls.DeviceType = model.DeviceTablet
	}
	cls.Browser = strings.TrimSpace(ua.Name + " " + ua.Version)
	cls.OS = strings.TrimSpace(ua.OS + " " + ua.OSVersion)
	return cls
}

// ClientIP resolves the visitor address. With a forwarding header present the
// first comma-separated entry wins; this trusts the proxy and does not defend
// against spoofed headers. Otherwise the transport remote address is used,
// with its port stripped when one is attached.
func ClientIP(forwardedFor, remoteAddr string) string {
	if forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
