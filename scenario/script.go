package scenario

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
)

// SupportedVersions is the range of script versions this package can run
const SupportedVersions = "^1.0"

// Op identifies a scenario command
type Op uint32

const (
	OpReset Op = iota + 1
	OpConfigure
	OpAdmit
	OpRelease
	OpReference
	OpModify
	OpSnapshot
	OpCompact
)

var opMapping = map[Op]string{
	OpReset:     "reset",
	OpConfigure: "configure",
	OpAdmit:     "admit",
	OpRelease:   "release",
	OpReference: "reference",
	OpModify:    "modify",
	OpSnapshot:  "snapshot",
	OpCompact:   "compact",
}

func (o Op) String() string {
	return opMapping[o]
}

// Command is one parsed line of a script. Only the fields relevant to Op are set.
type Command struct {
	// Line is the 1-based line number the command came from
	Line int
	Op   Op

	// Name is the process name for admit, release, reference, and modify
	Name string
	// Size is the unparsed size for admit, so the engine can reject bad sizes itself
	Size string

	TotalMemory int
	PageSize    int

	Strategy metadata.FitStrategy
	Policy   replacement.Policy

	// Algorithm is the compaction algorithm for compact, 0 for the default
	Algorithm defrag.Algorithm
}

// Script is a parsed scenario
type Script struct {
	// Version is the version the script declared, or nil if it declared none
	Version  *semver.Version
	Commands []Command
}

// Parse reads a scenario script. Blank lines are skipped and # starts a comment. An optional
// "version" line must come before every command and name a version within SupportedVersions.
func Parse(reader io.Reader) (*Script, error) {
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return nil, errors.Wrap(err, "invalid supported version range")
	}

	script := &Script{}
	scanner := bufio.NewScanner(reader)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := scanner.Text()
		if comment := strings.IndexByte(line, '#'); comment >= 0 {
			line = line[:comment]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		keyword := strings.ToLower(fields[0])
		args := fields[1:]

		if keyword == "version" {
			if script.Version != nil || len(script.Commands) > 0 {
				return nil, errors.Errorf("line %d: version must be the first command of a script", lineNumber)
			}

			if len(args) != 1 {
				return nil, errors.Errorf("line %d: version takes exactly one argument", lineNumber)
			}

			version, err := semver.NewVersion(args[0])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid version %q", lineNumber, args[0])
			}

			if !constraint.Check(version) {
				return nil, errors.Errorf("line %d: script version %s is not in the supported range %s", lineNumber, version, SupportedVersions)
			}

			script.Version = version
			continue
		}

		command, err := parseCommand(lineNumber, keyword, args)
		if err != nil {
			return nil, err
		}

		script.Commands = append(script.Commands, command)
	}

	err = scanner.Err()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read script")
	}

	return script, nil
}

func parseCommand(lineNumber int, keyword string, args []string) (Command, error) {
	command := Command{Line: lineNumber}

	expectArgs := func(min, max int) error {
		if len(args) < min || len(args) > max {
			if min == max {
				return errors.Errorf("line %d: %s takes %d arguments, got %d", lineNumber, keyword, min, len(args))
			}
			return errors.Errorf("line %d: %s takes %d to %d arguments, got %d", lineNumber, keyword, min, max, len(args))
		}
		return nil
	}

	switch keyword {
	case "reset":
		command.Op = OpReset
		err := expectArgs(1, 2)
		if err != nil {
			return command, err
		}

		command.TotalMemory, err = parseSize(lineNumber, "memory size", args[0])
		if err != nil {
			return command, err
		}

		if len(args) == 2 {
			command.PageSize, err = parseSize(lineNumber, "page size", args[1])
			if err != nil {
				return command, err
			}
		}
	case "configure":
		command.Op = OpConfigure
		err := expectArgs(2, 2)
		if err != nil {
			return command, err
		}

		command.Strategy, err = metadata.ParseFitStrategy(args[0])
		if err != nil {
			return command, errors.Wrapf(err, "line %d", lineNumber)
		}

		command.Policy, err = replacement.ParsePolicy(args[1])
		if err != nil {
			return command, errors.Wrapf(err, "line %d", lineNumber)
		}
	case "admit":
		command.Op = OpAdmit
		err := expectArgs(2, 2)
		if err != nil {
			return command, err
		}

		command.Name = args[0]
		command.Size = args[1]
	case "release", "reference", "modify":
		switch keyword {
		case "release":
			command.Op = OpRelease
		case "reference":
			command.Op = OpReference
		default:
			command.Op = OpModify
		}

		err := expectArgs(1, 1)
		if err != nil {
			return command, err
		}

		command.Name = args[0]
	case "snapshot":
		command.Op = OpSnapshot
		err := expectArgs(0, 0)
		if err != nil {
			return command, err
		}
	case "compact":
		command.Op = OpCompact
		err := expectArgs(0, 1)
		if err != nil {
			return command, err
		}

		if len(args) == 1 {
			command.Algorithm, err = defrag.ParseAlgorithm(args[0])
			if err != nil {
				return command, errors.Wrapf(err, "line %d", lineNumber)
			}
		}
	default:
		return command, errors.Errorf("line %d: unknown command %q", lineNumber, keyword)
	}

	return command, nil
}

func parseSize(lineNumber int, what string, text string) (int, error) {
	size, err := strconv.Atoi(text)
	if err != nil || size < 0 {
		return 0, errors.Errorf("line %d: %s %q is not a whole number of KB", lineNumber, what, text)
	}

	return size, nil
}
