package ruleparser

import (
	"strings"

	"github.com/jasonish/sigparse/keywords"
	"github.com/jasonish/sigparse/log"
	"github.com/jasonish/sigparse/signature"
)

// parsedOption is one semicolon-delimited option after name/value
// splitting but before quoting/negation handling.
type parsedOption struct {
	name    string
	value   string
	hasArg  bool
}

// splitOption isolates name and value on the first unescaped ':', per
// spec.md §4.4 step 1. '\;' inside the value is unescaped here into a
// literal ';' since this is the last layer that sees it.
func splitOption(raw string) parsedOption {
	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return parsedOption{name: strings.TrimSpace(raw)}
	}
	name := strings.TrimSpace(raw[:idx])
	value := strings.TrimSpace(raw[idx+1:])
	value = strings.ReplaceAll(value, `\;`, ";")
	return parsedOption{name: name, value: value, hasArg: true}
}

// stripQuotes applies a keyword's quoting flags to value, per
// spec.md §4.4 step 5.
func stripQuotes(raw string, name string, value string, flags keywords.Flag) (string, error) {
	quoted := strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2
	switch {
	case flags.Has(keywords.FlagQuotesMandatory):
		if !quoted {
			return "", newError(KindSemantic, raw, "keyword %q requires a quoted value", name)
		}
		return value[1 : len(value)-1], nil
	case flags.Has(keywords.FlagQuotesOptional):
		if quoted {
			return value[1 : len(value)-1], nil
		}
		return value, nil
	default:
		if strings.HasPrefix(value, `"`) {
			return "", newError(KindSemantic, raw, "keyword %q does not accept a quoted value", name)
		}
		return value, nil
	}
}

// consumeDirectionArg pre-consumes a leading to_client/to_server token,
// per spec.md §4.4 step 6 (SUPPORT_DIR).
func consumeDirectionArg(value string) (dir string, rest string) {
	value = strings.TrimLeft(value, " \t")
	switch {
	case strings.HasPrefix(value, "to_client"):
		rest = strings.TrimLeft(strings.TrimPrefix(value, "to_client"), " \t,")
		return "to_client", rest
	case strings.HasPrefix(value, "to_server"):
		rest = strings.TrimLeft(strings.TrimPrefix(value, "to_server"), " \t,")
		return "to_server", rest
	default:
		return "", value
	}
}

// optionOutcome is what happened to one option's dispatch, used by
// runOptions to decide whether the rule as a whole should be kept,
// dropped silently, or rejected.
type optionOutcome int

const (
	outcomeOK optionOutcome = iota
	outcomeSilentSkip
	outcomeRequiresNotMet
)

// applyOption dispatches one already-split option to its keyword's Setup
// callback, applying every per-keyword flag behavior from spec.md §4.4.
func applyOption(raw string, table *keywords.Table, sig *signature.Signature, opt parsedOption, isFirewall bool) (optionOutcome, error) {
	entry, ok := table.Lookup(opt.name)
	if !ok {
		return outcomeOK, newError(KindUnknownKeyword, raw, "unknown rule keyword %q", opt.name)
	}

	if !opt.hasArg && !entry.Flags.Has(keywords.FlagNoOpt) && !entry.Flags.Has(keywords.FlagOptionalOpt) {
		return outcomeOK, newError(KindSemantic, raw, "keyword %q requires a value", opt.name)
	}
	if opt.hasArg && entry.Flags.Has(keywords.FlagNoOpt) {
		return outcomeOK, newError(KindSemantic, raw, "keyword %q does not accept a value", opt.name)
	}

	value := opt.value
	sig.Negated = false
	if entry.Flags.Has(keywords.FlagHandleNegation) && strings.HasPrefix(value, "!") {
		sig.Negated = true
		value = value[1:]
	}

	stripped, err := stripQuotes(raw, opt.name, value, entry.Flags)
	if err != nil {
		return outcomeOK, err
	}
	value = stripped

	sig.ForceToServer, sig.ForceToClient = false, false
	if entry.Flags.Has(keywords.FlagSupportDir) {
		var dir string
		dir, value = consumeDirectionArg(value)
		switch dir {
		case "to_client":
			sig.ForceToClient = true
			sig.Flags.Set(signature.FlagInitForceToClient)
		case "to_server":
			sig.ForceToServer = true
			sig.Flags.Set(signature.FlagInitForceToServer)
		}
	}

	if isFirewall && !entry.Flags.Has(keywords.FlagSupportFirewall) {
		log.Warning("keyword %q is not firewall-rule aware", opt.name)
	}
	if entry.Flags.Has(keywords.FlagInfoDeprecated) {
		if entry.Alternative != "" {
			log.Warning("keyword %q is deprecated, use %q instead", opt.name, entry.Alternative)
		} else {
			log.Warning("keyword %q is deprecated", opt.name)
		}
	}

	setupErr := entry.Setup(sig, value)

	sig.Negated = false
	sig.ForceToServer, sig.ForceToClient = false, false

	if setupErr == nil {
		return outcomeOK, nil
	}
	if isRequiresNotMet(setupErr) {
		return outcomeRequiresNotMet, nil
	}
	if isSilentOK(setupErr) {
		return outcomeSilentSkip, nil
	}
	if isSilentOnce(setupErr) {
		if table.SilentError(entry) {
			log.Error("%s: %v", opt.name, setupErr)
		}
		return outcomeSilentSkip, nil
	}
	if entry.Flags.Has(keywords.FlagStrictParsing) {
		return outcomeOK, newError(KindSemantic, raw, "%s: %v", opt.name, setupErr)
	}
	return outcomeOK, newError(KindSemantic, raw, "%s: %v", opt.name, setupErr)
}

// runOptions runs the two-pass option parser from spec.md §4.4: a first
// pass that only processes `requires`/`sid`, then a full pass over
// everything else.
func runOptions(raw string, table *keywords.Table, sig *signature.Signature, optsText string) (optionOutcome, error) {
	opts, err := splitOptions(optsText)
	if err != nil {
		return outcomeOK, err
	}

	isFirewall := sig.Flags.Has(signature.FlagFirewall)
	sawSid := false

	for _, raw0 := range opts {
		opt := splitOption(raw0)
		if opt.name != "requires" && opt.name != "sid" {
			continue
		}
		if opt.name == "sid" {
			sawSid = true
		}
		outcome, err := applyOption(raw, table, sig, opt, isFirewall)
		if err != nil {
			return outcomeOK, err
		}
		if outcome != outcomeOK {
			return outcome, nil
		}
	}
	if !sawSid {
		return outcomeOK, newError(KindSemantic, raw, "rule has no sid")
	}

	for _, raw0 := range opts {
		opt := splitOption(raw0)
		if opt.name == "requires" || opt.name == "sid" {
			continue
		}
		outcome, err := applyOption(raw, table, sig, opt, isFirewall)
		if err != nil {
			return outcomeOK, err
		}
		if outcome != outcomeOK {
			return outcome, nil
		}
	}

	return outcomeOK, nil
}
