package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/alecthomas/kong"

	"github.com/randomouscrap98/pngcarver/carve"
)

const (
	AppVersion = "0.2.0"
)

// Quick way to fail on error, since most commands are "doing" something on
// behalf of something else.
func fatalIfErr(subject string, doing string, err error) {
	if err != nil {
		log.Fatalf("%s - Couldn't %s: %s", subject, doing, err)
	}
}

// Settings shared by every command that scans. Zero values mean "not given",
// so the config file (or the defaults) win
type ScanFlags struct {
	Config    string `type:"existingfile" short:"c" help:"TOML file with carving settings"`
	Stride    int64  `help:"Probe stride in bytes (default: 4096). Signatures off the stride are missed"`
	BlockSize int    `help:"Copy block size in bytes (default: 4096)"`
	KeepGoing bool   `help:"Record broken images and keep scanning instead of stopping"`
	Hex       bool   `help:"Input is an Intel HEX dump rather than raw binary"`
}

func (f *ScanFlags) load() carve.Config {
	config := carve.DefaultConfig()
	if f.Config != "" {
		var err error
		config, err = carve.LoadConfig(f.Config)
		fatalIfErr(f.Config, "load config", err)
		log.Printf("Loaded config from %s\n", f.Config)
	}
	if f.Stride != 0 {
		config.Stride = f.Stride
	}
	if f.BlockSize != 0 {
		config.BlockSize = f.BlockSize
	}
	config.KeepGoing = config.KeepGoing || f.KeepGoing
	config.Hex = config.Hex || f.Hex
	return config
}

func openSource(path string, hex bool) (io.ReadSeeker, io.Closer) {
	src, closer, err := carve.OpenSource(path, hex)
	fatalIfErr(path, "open input", err)
	return src, closer
}

// **********************************
// *       CARVING COMMANDS         *
// **********************************

type CarveCmd struct {
	Infile string `arg:"" type:"existingfile" help:"File (disk image, memory dump, etc) to carve PNGs out of"`
	Output string `type:"path" short:"o" help:"Folder to write carved images to (default: output)"`
	Mkdir  bool   `help:"Create the output folder if it doesn't exist"`
	ScanFlags `embed:""`
}

func (c *CarveCmd) Run() error {
	config := c.load()
	if c.Output != "" {
		config.Output = c.Output
	}
	config.Mkdir = config.Mkdir || c.Mkdir
	fatalIfErr("carve", "validate settings", config.Validate())
	fatalIfErr(config.Output, "create output folder", config.PrepareOutput())
	src, closer := openSource(c.Infile, config.Hex)
	defer closer.Close()
	result, err := config.NewScanner(nil).Scan(src)
	fatalIfErr(c.Infile, "carve", err)
	log.Printf("Carved %d images from %s into %s\n", len(result.Images), c.Infile, config.Output)
	report := scanReport(c.Infile, result)
	report["Output"] = config.Output
	PrintJson(report)
	return nil
}

// Same as carve, but nothing gets written
type ScanCmd struct {
	Infile string `arg:"" type:"existingfile" help:"File to search for PNGs"`
	ScanFlags `embed:""`
}

func (c *ScanCmd) Run() error {
	config := c.load()
	fatalIfErr("scan", "validate settings", config.Validate())
	src, closer := openSource(c.Infile, config.Hex)
	defer closer.Close()
	result, err := config.NewScanner(carve.DiscardSink{}).Scan(src)
	fatalIfErr(c.Infile, "scan", err)
	log.Printf("Found %d images in %s\n", len(result.Images), c.Infile)
	PrintJson(scanReport(c.Infile, result))
	return nil
}

type ScriptCmd struct {
	Script    string   `arg:"" type:"existingfile" help:"Lua script to run"`
	Arguments []string `arg:"" optional:"" help:"Arguments passed to the script (see arguments())"`
	Dir       string   `type:"path" short:"d" help:"Folder relative paths in the script are resolved against"`
}

func (c *ScriptCmd) Run() error {
	script, err := os.ReadFile(c.Script)
	fatalIfErr(c.Script, "read script", err)
	logs, err := carve.RunLuaCarveScript(string(script), c.Arguments, c.Dir)
	fmt.Print(logs)
	fatalIfErr(c.Script, "run script", err)
	return nil
}

// **********************************
// *    ALL TOGETHER COMMANDS       *
// **********************************

var cli struct {
	Carve   CarveCmd         `cmd:"" default:"withargs" help:"Carve every PNG found in a file into its own output file (default)"`
	Scan    ScanCmd          `cmd:"" help:"Report the PNGs in a file without writing anything"`
	Script  ScriptCmd        `cmd:"" help:"Run a lua carving script"`
	Version kong.VersionFlag `help:"Show version information"`
	Quiet   bool             `short:"q" help:"Don't log progress (json results still print)"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("pngcarver"),
		kong.ShortUsageOnError(),
		kong.Description("Find PNG images embedded in arbitrary binary blobs and carve them out"),
		kong.Vars{
			"version": AppVersion,
		},
	)
	if cli.Quiet {
		log.SetOutput(io.Discard)
	}
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
