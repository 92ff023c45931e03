package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mixdeck/internal/shared"
)

// Channel is a playback category with its own volume and concurrency policy.
type Channel int

const (
	ChannelBGM Channel = iota
	ChannelSFX
	ChannelStem
	ChannelVoice
	ChannelAmbient
	ChannelUI
	ChannelBattle
	ChannelMenu
	ChannelCustom1
	ChannelCustom2
	ChannelCustom3
)

var channelNames = [...]string{
	ChannelBGM:     "bgm",
	ChannelSFX:     "sfx",
	ChannelStem:    "stem",
	ChannelVoice:   "voice",
	ChannelAmbient: "ambient",
	ChannelUI:      "ui",
	ChannelBattle:  "battle",
	ChannelMenu:    "menu",
	ChannelCustom1: "custom1",
	ChannelCustom2: "custom2",
	ChannelCustom3: "custom3",
}

var channelCategories = [...]string{
	ChannelBGM:     "BGM",
	ChannelSFX:     "SFX",
	ChannelStem:    "Stem",
	ChannelVoice:   "Voice",
	ChannelAmbient: "Ambient",
	ChannelUI:      "UI",
	ChannelBattle:  "Battle",
	ChannelMenu:    "Menu",
	ChannelCustom1: "Custom",
	ChannelCustom2: "Custom",
	ChannelCustom3: "Custom",
}

// Channels returns every channel in declaration order.
func Channels() []Channel {
	out := make([]Channel, len(channelNames))
	for i := range channelNames {
		out[i] = Channel(i)
	}
	return out
}

// Valid reports whether c is a declared channel.
func (c Channel) Valid() bool {
	return c >= ChannelBGM && int(c) < len(channelNames)
}

func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return channelNames[c]
}

// DefaultCategory is the category assigned to clips registered without one.
func (c Channel) DefaultCategory() string {
	if !c.Valid() {
		return "Unknown"
	}
	return channelCategories[c]
}

// ParseChannel accepts the short channel names plus a few long aliases.
func ParseChannel(s string) (Channel, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "background-music", "background_music", "music":
		return ChannelBGM, nil
	case "sound-effect", "sound_effect", "effect":
		return ChannelSFX, nil
	}
	for i, name := range channelNames {
		if name == key {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown channel %q", shared.ErrInvalidInput, s)
}

// MarshalText implements [encoding.TextMarshaler].
func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown channel %d", shared.ErrInvalidInput, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *Channel) UnmarshalText(b []byte) error {
	ch, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = ch
	return nil
}
