/* Copyright (c) 2014-2017 Jason Ish
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

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/jasonish/sigparse/config"
	"github.com/jasonish/sigparse/engine"
	"github.com/jasonish/sigparse/log"
	"github.com/jasonish/sigparse/ruleparser"
	"github.com/jasonish/sigparse/signature"
	"github.com/jasonish/sigparse/validator"
)

var buildVersion string
var buildRev string

var opts struct {
	ConfigFile string `long:"config" short:"c" description:"Configuration file"`
	Strict     string `long:"strict" description:"Apply strict parsing to a keyword, comma-list, or 'all'"`
	Verbose    bool   `long:"verbose" short:"v" description:"Enable debug logging"`
	Version    bool   `long:"version" description:"Show version"`

	Validate validateCommand `command:"validate" description:"Parse and validate rule files, reporting any errors"`
	Dump     dumpCommand     `command:"dump" description:"Parse rule files and dump the resulting signatures as JSON"`
}

type validateCommand struct {
	Paths []string `positional-arg-name:"path" required:"1" description:"Rule file, directory, or glob"`
}

type dumpCommand struct {
	Paths []string `positional-arg-name:"path" required:"1" description:"Rule file, directory, or glob"`
}

func buildEngine(cfg *config.Config) *engine.Engine {
	table := ruleparser.DefaultTable()
	table.ApplyStrict(cfg.Strict)
	return engine.New(table, validator.Options{FileDataListID: signature.FileDataListID})
}

func (c *validateCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng := buildEngine(cfg)
	stats := eng.LoadPaths(c.Paths)
	if len(stats.Errors) > 0 {
		for _, e := range stats.Errors {
			log.Error("%v", e)
		}
		return fmt.Errorf("%d rule(s) failed validation", len(stats.Errors))
	}
	return nil
}

func (c *dumpCommand) Execute(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	eng := buildEngine(cfg)
	eng.LoadPaths(c.Paths)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	for _, sig := range eng.Signatures() {
		if err := encoder.Encode(sig); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	if opts.ConfigFile == "" {
		cfg := config.Default()
		cfg.Strict = opts.Strict
		return &cfg, nil
	}
	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Strict != "" {
		cfg.Strict = opts.Strict
	}
	return cfg, nil
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("sigparse %s (%s)\n", buildVersion, buildRev)
		os.Exit(0)
	}

	if opts.Verbose {
		log.SetLevel(log.DEBUG)
	}
}
