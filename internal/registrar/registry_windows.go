package registrar

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/registry"
)

// WindowsRegistry stores records under HKEY_CURRENT_USER.
type WindowsRegistry struct{}

// NewRegistry returns the registry for the current platform.
func NewRegistry() Registry {
	return WindowsRegistry{}
}

// Write implements Registry.
func (WindowsRegistry) Write(rec Record) error {
	path := UninstallKeyPrefix + rec.Key
	k, _, err := registry.CreateKey(registry.CURRENT_USER, path, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to create registry key %s: %w", path, err)
	}
	defer func() {
		if cerr := k.Close(); cerr != nil {
			log.Warnf("failed to close registry key %s: %v", path, cerr)
		}
	}()

	strs := []struct{ name, value string }{
		{"DisplayName", rec.DisplayName},
		{"Publisher", rec.Publisher},
		{"UninstallString", rec.UninstallString},
		{"InstallLocation", rec.InstallLocation},
		{"DisplayIcon", rec.DisplayIcon},
		{"DisplayVersion", rec.DisplayVersion},
	}
	for _, v := range strs {
		if v.value == "" && v.name == "DisplayVersion" {
			continue
		}
		if err := k.SetStringValue(v.name, v.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", v.name, err)
		}
	}

	dwords := []struct {
		name  string
		value bool
	}{
		{"NoModify", rec.NoModify},
		{"NoRepair", rec.NoRepair},
	}
	for _, v := range dwords {
		var n uint32
		if v.value {
			n = 1
		}
		if err := k.SetDWordValue(v.name, n); err != nil {
			return fmt.Errorf("failed to set %s: %w", v.name, err)
		}
	}

	log.Debugf("wrote registration record %s", path)
	return nil
}

// Read implements Registry.
func (WindowsRegistry) Read(key string) (Record, error) {
	path := UninstallKeyPrefix + key
	k, err := registry.OpenKey(registry.CURRENT_USER, path, registry.QUERY_VALUE)
	if errors.Is(err, registry.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to open registry key %s: %w", path, err)
	}
	defer func() { _ = k.Close() }()

	rec := Record{Key: key}
	for name, dst := range map[string]*string{
		"DisplayName":     &rec.DisplayName,
		"Publisher":       &rec.Publisher,
		"UninstallString": &rec.UninstallString,
		"InstallLocation": &rec.InstallLocation,
		"DisplayIcon":     &rec.DisplayIcon,
		"DisplayVersion":  &rec.DisplayVersion,
	} {
		v, _, err := k.GetStringValue(name)
		if err != nil && !errors.Is(err, registry.ErrNotExist) {
			return Record{}, fmt.Errorf("failed to read %s: %w", name, err)
		}
		*dst = v
	}

	if v, _, err := k.GetIntegerValue("NoModify"); err == nil {
		rec.NoModify = v == 1
	}
	if v, _, err := k.GetIntegerValue("NoRepair"); err == nil {
		rec.NoRepair = v == 1
	}
	return rec, nil
}

// Delete implements Registry. A missing key is not an error.
func (WindowsRegistry) Delete(key string) error {
	path := UninstallKeyPrefix + key
	err := registry.DeleteKey(registry.CURRENT_USER, path)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			log.Debugf("no registration record to remove at %s", path)
			return nil
		}
		return fmt.Errorf("failed to delete registry key %s: %w", path, err)
	}
	log.Debugf("removed registration record %s", path)
	return nil
}
