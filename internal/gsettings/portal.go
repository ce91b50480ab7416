package gsettings

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	portalName     = "org.freedesktop.portal.Desktop"
	portalPath     = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	portalSettings = "org.freedesktop.portal.Settings"
	appearanceNS   = "org.freedesktop.appearance"
	colorSchemeKey = "color-scheme"
)

// Color schemes reported by the appearance portal.
const (
	SchemeDefault     = "default"
	SchemePreferDark  = "prefer-dark"
	SchemePreferLight = "prefer-light"
)

// Portal reads settings from xdg-desktop-portal over the session bus.
type Portal struct {
	conn *dbus.Conn
}

// NewPortal connects to the session bus.
func NewPortal() (*Portal, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Portal{conn: conn}, nil
}

// Read calls Settings.Read and unwraps the nested variant older portals return.
func (p *Portal) Read(ctx context.Context, namespace, key string) (any, error) {
	obj := p.conn.Object(portalName, portalPath)

	var v dbus.Variant
	if err := obj.CallWithContext(ctx, portalSettings+".Read", 0, namespace, key).Store(&v); err != nil {
		return nil, err
	}
	return unwrapVariant(v), nil
}

func unwrapVariant(v dbus.Variant) any {
	value := v.Value()
	for {
		inner, ok := value.(dbus.Variant)
		if !ok {
			return value
		}
		value = inner.Value()
	}
}

// ColorScheme returns the desktop's preferred colour scheme.
func ColorScheme(ctx context.Context, r SettingsReader) (string, error) {
	v, err := r.Read(ctx, appearanceNS, colorSchemeKey)
	if err != nil {
		return "", err
	}
	n, _ := v.(uint32)
	switch n {
	case 1:
		return SchemePreferDark, nil
	case 2:
		return SchemePreferLight, nil
	default:
		return SchemeDefault, nil
	}
}
