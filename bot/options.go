package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// InvalidResolutionError reports a malformed resolution option. The command
// fails before any pipeline work starts.
type InvalidResolutionError struct {
	Value string
}

func (e *InvalidResolutionError) Error() string {
	return fmt.Sprintf("bot: invalid resolution %q", e.Value)
}

// LocaleKey returns the user-message key for this error.
func (e *InvalidResolutionError) LocaleKey() string { return "invalid-resolution" }

// InvalidOptionError reports an unparseable value for a numeric option.
type InvalidOptionError struct {
	Flag  string
	Value string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("bot: invalid value %q for option %s", e.Value, e.Flag)
}

// LocaleKey returns the user-message key for this error.
func (e *InvalidOptionError) LocaleKey() string { return "invalid-option" }

// Options are the parsed command options plus the remaining prompt text.
// Nil pointer fields mean "not supplied".
type Options struct {
	// Width and Height come from the resolution option; zero when unset.
	Width  int
	Height int

	// Seed overrides the random generation seed.
	Seed *int64

	// Scale overrides the guidance scale.
	Scale *float64

	// Strength overrides the denoising strength.
	Strength *float64

	// Undesired appends to the negative term list.
	Undesired string

	// Override drops the configured base prompt terms.
	Override bool

	// Text is the command text with all options removed.
	Text string
}

var resolutionPattern = regexp.MustCompile(`^(\d+)[xX](\d+)$`)

// flagNames maps every recognized flag token to its canonical option name.
var flagNames = map[string]string{
	"-r": "resolution", "--resolution": "resolution",
	"-s": "seed", "--seed": "seed",
	"-c": "scale", "--scale": "scale",
	"-t": "strength", "--strength": "strength",
	"-u": "undesired", "--undesired": "undesired",
	"-o": "override", "--override": "override",
}

// ParseCommand splits the raw command text into options and prompt text.
// Flags take their value from an attached `=value` or from the next token;
// unrecognized tokens stay part of the prompt. A malformed resolution or
// numeric value fails the whole command.
func ParseCommand(raw string) (*Options, error) {
	opts := &Options{}
	tokens := strings.Fields(raw)
	var rest []string

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		flag, value := token, ""
		if eq := strings.IndexByte(token, '='); eq >= 0 && strings.HasPrefix(token, "-") {
			flag, value = token[:eq], token[eq+1:]
		}

		name, ok := flagNames[flag]
		if !ok {
			rest = append(rest, token)
			continue
		}
		if name == "override" {
			opts.Override = true
			continue
		}
		if value == "" {
			if i+1 >= len(tokens) {
				return nil, &InvalidOptionError{Flag: name, Value: ""}
			}
			i++
			value = tokens[i]
		}
		if err := opts.apply(name, value); err != nil {
			return nil, err
		}
	}

	opts.Text = strings.Join(rest, " ")
	return opts, nil
}

func (o *Options) apply(name, value string) error {
	switch name {
	case "resolution":
		m := resolutionPattern.FindStringSubmatch(value)
		if m == nil {
			return &InvalidResolutionError{Value: value}
		}
		// Digits-only by the pattern; Atoi cannot fail here.
		o.Width, _ = strconv.Atoi(m[1])
		o.Height, _ = strconv.Atoi(m[2])
		if o.Width == 0 || o.Height == 0 {
			return &InvalidResolutionError{Value: value}
		}
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return &InvalidOptionError{Flag: name, Value: value}
		}
		o.Seed = &n
	case "scale":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return &InvalidOptionError{Flag: name, Value: value}
		}
		o.Scale = &f
	case "strength":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 || f > 1 {
			return &InvalidOptionError{Flag: name, Value: value}
		}
		o.Strength = &f
	case "undesired":
		o.Undesired = value
	}
	return nil
}
