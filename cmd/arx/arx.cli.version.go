package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"gopkg.in/yaml.v3"
)

// Build metadata, set with
// -ldflags "-X main.version=... -X main.commit=... -X main.buildTime=..."
var (
	version   string
	commit    string
	buildTime string

	// versionsFile pins the metadata file; empty searches upward from the
	// working directory
	versionsFile string
)

// buildInfo is swapped in tests
var buildInfo = debug.ReadBuildInfo

// versionInfo is the output of the version command
type versionInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// projectMetadata is the versions.yaml layout
type projectMetadata struct {
	Project struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"project"`
	Git struct {
		Commit string `yaml:"commit"`
	} `yaml:"git"`
	Build struct {
		Time string `yaml:"time"`
	} `yaml:"build"`
}

func runVersion(args []string, stdout, stderr io.Writer) int {
	format, err := parseVersionFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidFormat, err)
		return ExitCodeUsageError
	}

	info := resolveVersion()
	if format == OutputFormatJSON {
		jsonBytes, _ := json.MarshalIndent(info, "", "  ")
		fmt.Fprintln(stdout, string(jsonBytes))
		return ExitCodeSuccess
	}
	fmt.Fprintf(stdout, VersionTextTemplate+FmtNewline,
		info.Name, info.Version, info.Commit, info.BuildTime, info.GoVersion)
	return ExitCodeSuccess
}

func parseVersionFlags(args []string) (string, error) {
	fs := flag.NewFlagSet(CmdNameVersion, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var format string
	fs.StringVar(&format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if format != OutputFormatText && format != OutputFormatJSON {
		return "", errors.New(ErrMsgInvalidFormat)
	}
	return format, nil
}

// resolveVersion fills each field from the first source that has it:
// linker flags, versions.yaml, then the binary's build info.
func resolveVersion() versionInfo {
	info := versionInfo{
		Name:      VersionProjectName,
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	if meta, ok := readProjectMetadata(); ok {
		if meta.Project.Name != "" {
			info.Name = meta.Project.Name
		}
		fill(&info.Version, meta.Project.Version)
		fill(&info.Commit, meta.Git.Commit)
		fill(&info.BuildTime, meta.Build.Time)
	}

	if bi, ok := buildInfo(); ok {
		if bi.Main.Version != VersionDevel {
			fill(&info.Version, bi.Main.Version)
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case BuildSettingCommit:
				fill(&info.Commit, s.Value)
			case BuildSettingTime:
				fill(&info.BuildTime, s.Value)
			}
		}
	}

	fill(&info.Version, VersionUnknown)
	fill(&info.Commit, VersionUnknown)
	fill(&info.BuildTime, VersionUnknown)
	return info
}

func fill(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func readProjectMetadata() (*projectMetadata, bool) {
	path := versionsFile
	if path == "" {
		var ok bool
		if path, ok = findVersionsFile(); !ok {
			return nil, false
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var meta projectMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// findVersionsFile walks from the working directory to the filesystem root
func findVersionsFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(dir, VersionsFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
