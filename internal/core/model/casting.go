// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package model defines the core data structures for the pipeline. This file
// holds the casting structures produced by the second phase: character and
// location candidates with generated preview images, plus the selection the
// rest of the pipeline locks onto for continuity.
package model

import "fmt"

// Character is a candidate presenter for the video.
type Character struct {
	ID          int    `json:"id"`           // 1-based candidate number.
	Name        string `json:"name"`         // Thai archetype name, e.g. "ผู้เชี่ยวชาญ".
	Description string `json:"description"`  // Short Thai description of the archetype.
	Style       string `json:"style"`        // Visual style keyword, e.g. "professional".
	AgeRange    string `json:"age_range"`    // Apparent age range, e.g. "30-45".
	Personality string `json:"personality"`  // Personality line used in the image prompt.
	ImageURL    string `json:"image_url"`    // Preview image URL or local path.
	ImagePrompt string `json:"image_prompt"` // The prompt the preview was generated from.
}

// Location is a candidate setting for the video.
type Location struct {
	ID            int      `json:"id"`             // 1-based candidate number.
	Name          string   `json:"name"`           // Thai location name, e.g. "สตูดิโอ".
	Description   string   `json:"description"`    // Short Thai description of the setting.
	ScenePurposes []string `json:"scene_purposes"` // Which scene purposes this setting suits.
	Style         string   `json:"style"`          // Visual style keyword.
	Mood          string   `json:"mood"`           // Mood keyword used in the image prompt.
	ImageURL      string   `json:"image_url"`      // Preview image URL or local path.
	ImagePrompt   string   `json:"image_prompt"`   // The prompt the preview was generated from.
}

// Selection records which candidate character and location the downstream
// phases lock onto for visual continuity.
type Selection struct {
	SelectedCharacterID int `json:"selected_character_id"`
	SelectedLocationID  int `json:"selected_location_id"`
}

// CastingSet is the output of the casting phase: the story carried forward,
// the candidate lists, and the current selection.
type CastingSet struct {
	Story      *Story       `json:"story"`
	Characters []*Character `json:"characters"`
	Locations  []*Location  `json:"locations"`
	Selection  *Selection   `json:"selection"`
}

// ApplySelection updates the selection after verifying both ids refer to
// candidates that exist in this set. An unknown id is an error rather than a
// silent default: a caller that asks for a specific candidate must get that
// candidate or nothing.
func (c *CastingSet) ApplySelection(characterID int, locationID int) error {
	if _, err := c.CharacterByID(characterID); err != nil {
		return err
	}
	if _, err := c.LocationByID(locationID); err != nil {
		return err
	}
	c.Selection = &Selection{
		SelectedCharacterID: characterID,
		SelectedLocationID:  locationID,
	}
	return nil
}

// CharacterByID returns the candidate character with the given id.
func (c *CastingSet) CharacterByID(id int) (*Character, error) {
	for _, ch := range c.Characters {
		if ch.ID == id {
			return ch, nil
		}
	}
	return nil, fmt.Errorf("no character candidate with id %d", id)
}

// LocationByID returns the candidate location with the given id.
func (c *CastingSet) LocationByID(id int) (*Location, error) {
	for _, loc := range c.Locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return nil, fmt.Errorf("no location candidate with id %d", id)
}

// SelectedCharacter resolves the current selection to a character.
func (c *CastingSet) SelectedCharacter() (*Character, error) {
	if c.Selection == nil {
		return nil, fmt.Errorf("no selection has been made")
	}
	return c.CharacterByID(c.Selection.SelectedCharacterID)
}

// SelectedLocation resolves the current selection to a location.
func (c *CastingSet) SelectedLocation() (*Location, error) {
	if c.Selection == nil {
		return nil, fmt.Errorf("no selection has been made")
	}
	return c.LocationByID(c.Selection.SelectedLocationID)
}
