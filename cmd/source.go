package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/sw33tLie/estform/internal/assets"
	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/dom"
	"github.com/sw33tLie/estform/pkg/form"
	"github.com/sw33tLie/estform/pkg/records"
	"github.com/sw33tLie/estform/pkg/storage"
)

// newAirtable builds the HTTP source from config. Interactive lookups do not
// retry; the mirror passes a positive retryMax.
func newAirtable(retryMax int) (*records.AirtableSource, error) {
	return records.NewAirtable(records.AirtableConfig{
		Endpoint: viper.GetString("records.endpoint"),
		BaseID:   viper.GetString("records.base"),
		TableID:  viper.GetString("records.table"),
		Token:    viper.GetString("records.token"),
		Limit:    viper.GetInt("records.limit"),
		RetryMax: retryMax,
	})
}

// newSource returns the configured record source and a function releasing
// it.
func newSource() (records.Source, func(), error) {
	switch kind := strings.ToLower(viper.GetString("records.source")); kind {
	case "", "airtable":
		src, err := newAirtable(0)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case "sqlite":
		path, err := utils.MirrorPath(viper.GetString("records.dbpath"))
		if err != nil {
			return nil, nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, nil, fmt.Errorf("mirror not found at %s, run 'estform mirror' first", path)
		}
		db, err := storage.Open(path, storage.WithLogger(utils.Log))
		if err != nil {
			return nil, nil, err
		}
		utils.Log.Debugf("Serving lookups from mirror %s", path)
		return db, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown record source %q (want airtable or sqlite)", kind)
	}
}

// formOptions collects controller settings from config.
func formOptions() form.Options {
	return form.Options{
		Mode:          viper.GetString("form.mode"),
		GroupSelector: viper.GetString("form.group_selector"),
		Debounce:      viper.GetDuration("lookup.debounce"),
		Limit:         viper.GetInt("records.limit"),
		CacheSize:     viper.GetInt("lookup.cache_size"),
		Logger:        utils.Log,
	}
}

// loadForm parses the form document at path, or the built-in form when path
// is empty, and returns it with its container.
func loadForm(path, selector string) (*dom.Document, *dom.Element, error) {
	var doc *dom.Document
	var err error
	if path == "" {
		doc, err = dom.ParseString(assets.FormHTML)
		if selector == "" {
			selector = assets.FormSelector
		}
	} else {
		f, ferr := os.Open(path)
		if ferr != nil {
			return nil, nil, ferr
		}
		defer f.Close()
		doc, err = dom.Parse(f)
	}
	if err != nil {
		return nil, nil, err
	}
	if selector == "" {
		return doc, doc.Root(), nil
	}
	container := doc.First(selector)
	if container == nil {
		return nil, nil, fmt.Errorf("no element matches %q", selector)
	}
	return doc, container, nil
}
