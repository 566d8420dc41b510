package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/andreygs/gocsp/pkg/csp"
)

// FlagPicker lets the user choose flag bits from a multi-select form.
type FlagPicker struct {
	theme    *Theme
	headless *HeadlessManager
	// run executes the form; replaced in tests.
	run func(*huh.Form) error
}

// NewFlagPicker creates a FlagPicker.
func NewFlagPicker(theme *Theme, hm *HeadlessManager) *FlagPicker {
	return &FlagPicker{theme: theme, headless: hm, run: (*huh.Form).Run}
}

// PickCommon prompts for common flags, preselecting current. In headless
// mode the DefaultCommonFlagsKey default answers.
func (p *FlagPicker) PickCommon(current csp.CommonFlags) (csp.CommonFlags, error) {
	keys, err := p.pick("Common flags", csp.CommonFlagInfos(), uint32(current), DefaultCommonFlagsKey)
	if err != nil {
		return 0, err
	}
	return csp.ParseCommonFlags(keys)
}

// PickData prompts for data flags, preselecting current.
func (p *FlagPicker) PickData(current csp.DataFlags) (csp.DataFlags, error) {
	keys, err := p.pick("Data flags", csp.DataFlagInfos(), uint32(current), DefaultDataFlagsKey)
	if err != nil {
		return 0, err
	}
	return csp.ParseDataFlags(keys)
}

func (p *FlagPicker) pick(title string, infos []csp.FlagInfo, current uint32, defaultKey string) ([]string, error) {
	if p.headless.IsHeadless() {
		keys, ok := p.headless.GetDefaultList(defaultKey)
		if !ok {
			return nil, fmt.Errorf("%s: %w", title, ErrHeadlessNoDefaults)
		}
		return keys, nil
	}

	options := make([]huh.Option[string], 0, len(infos))
	for _, info := range infos {
		options = append(options, huh.NewOption(info.NameWhenSet, info.Key).Selected(current&info.Value != 0))
	}

	var selected []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title(title).
			Description("space toggles, enter confirms").
			Options(options...).
			Value(&selected),
	)).WithTheme(p.theme.Huh())

	if err := p.run(form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("%s: %w", title, err)
	}
	return selected, nil
}
