package main

import (
	"errors"
	"io"
	"log/slog"

	"github.com/HMasataka/corsserve/internal/config"
	"github.com/jessevdk/go-flags"
)

type options struct {
	Config    string `short:"c" long:"config" description:"path to a TOML config file"`
	Host      string `long:"host" description:"interface to listen on (default: all interfaces)"`
	Port      *int   `short:"p" long:"port" description:"port to listen on (default: 8000)"`
	NoBrowser bool   `long:"no-browser" description:"do not open the browser on startup"`
	Verbose   bool   `short:"v" long:"verbose" description:"enable debug logging"`
	AccessLog bool   `long:"access-log" description:"log every request"`
}

// parseOptions は返り値の bool が false の場合、ヘルプを表示したので終了すべきことを示す
func parseOptions(args []string) (options, bool, error) {
	var opts options

	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "corsserve"
	parser.Usage = "[OPTIONS]"

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return opts, false, nil
		}
		return opts, false, err
	}

	return opts, true, nil
}

// apply はコマンドラインで指定された値だけを設定に上書きする
func (o options) apply(cfg config.Config) config.Config {
	if o.Host != "" {
		cfg.Server.Host = o.Host
	}
	if o.Port != nil {
		cfg.Server.Port = *o.Port
	}
	if o.NoBrowser {
		cfg.Server.OpenBrowser = false
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	if o.AccessLog {
		cfg.Log.Access = true
	}
	return cfg
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})), nil
}
