/* Copyright (c) 2016 Jason Ish
 * All rights reserved.
 *
 * Redistribution and use in source and binary forms, with or without
 * modification, are permitted provided that the following conditions
 * are met:
 *
 * 1. Redistributions of source code must retain the above copyright
 *    notice, this list of conditions and the following disclaimer.
 * 2. Redistributions in binary form must reproduce the above copyright
 *    notice, this list of conditions and the following disclaimer in the
 *    documentation and/or other materials provided with the distribution.
 *
 * THIS SOFTWARE IS PROVIDED ``AS IS'' AND ANY EXPRESS OR IMPLIED
 * WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
 * DISCLAIMED. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY DIRECT,
 * INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES
 * (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
 * SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION)
 * HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT,
 * STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING
 * IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
 * POSSIBILITY OF SUCH DAMAGE.
 */

// Package config holds engine-wide parser knobs: the keyword strict-mode
// spec, the alproto multi-set cap and the buffer vector cap. It is loaded once before any rule is parsed, the same way the
// keyword table is built once before any parse (spec.md §4.2).
package config

import (
	"encoding/json"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Config is the engine-wide configuration for the parser/validator.
type Config struct {
	// Strict is either "all", a comma separated list of keyword names, or
	// empty. It is applied to the keyword registry at startup via
	// keywords.ApplyStrict.
	Strict string `yaml:"strict" json:"strict"`

	// AlprotoMax is the configured size of the multi-alproto set
	// (spec.md §3, "at most N candidates"). The parser does not read it;
	// the cap in effect is signature.SigAlprotoMax.
	AlprotoMax int `yaml:"alproto-max" json:"alproto-max"`

	// BufferCap is the configured number of distinct buffers a signature
	// may allocate (spec.md §3, cap 64). The parser does not read it; the
	// cap in effect is signature.MaxBuffers.
	BufferCap int `yaml:"buffer-cap" json:"buffer-cap"`

	// Extra carries any keys this version of the config doesn't know
	// about, so a newer rule file or operator config doesn't fail to
	// load against an older binary.
	Extra map[string]interface{} `yaml:",inline" json:"extra,omitempty"`
}

// Default returns the configuration the engine runs with when no
// configuration file is supplied.
func Default() Config {
	return Config{
		AlprotoMax: 4,
		BufferCap:  64,
	}
}

func (c *Config) ToJSON() ([]byte, error) {
	bytes, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return bytes, nil
}

// LoadConfig loads a Config from a YAML file, filling in defaults for any
// field the file doesn't set.
func LoadConfig(filename string) (*Config, error) {
	config := Default()
	if err := LoadConfigTo(filename, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadConfigTo loads YAML config from filename into output.
func LoadConfigTo(filename string, output interface{}) error {
	buf, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, output)
}
