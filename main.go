package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/yemson/fask/audio"
	"github.com/yemson/fask/config"
	"github.com/yemson/fask/frame"
	"github.com/yemson/fask/modem"
	"github.com/yemson/fask/tone"

	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var configFile = koanf.New(".")

func getConfigPath() string {
	paths := []string{"/etc/fask/config.hcl", "~/.config/fask/config.hcl", "./config.hcl"}
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Infof("Found config file: %s", path)
			return path
		}
	}
	log.Debug("Config file not found, using defaults")
	return ""
}

func loadConfig() (config.ModemConf, config.GateConf) {
	if err := configFile.Load(file.Provider(getConfigPath()), hcl.Parser(true)); err != nil {
		log.Debugf("Could not read config file: %v", err)
		configFile.Load(env.Provider("", env.Opt{
			Prefix: "FASK_",
			TransformFunc: func(k, v string) (string, any) {
				key := strings.ToLower(strings.TrimPrefix(k, "FASK_"))
				k = strings.Replace(key, "_", ".", 1)
				return k, v
			},
		}), nil)
	}

	mc := config.ModemConf{
		SampleRate:     configFile.Float64("modem.sample_rate"),
		F0:             configFile.Float64("modem.f0"),
		F1:             configFile.Float64("modem.f1"),
		Profile:        configFile.String("modem.profile"),
		Version:        configFile.String("modem.version"),
		LegacyFallback: configFile.Bool("modem.legacy_fallback"),
		Amplitude:      configFile.Float64("modem.amplitude"),
	}
	gc := config.GateConf{
		Enabled:        configFile.Bool("gate.enabled"),
		MinRMSDb:       floatIfSet("gate.min_rms_db"),
		MinSNR:         floatIfSet("gate.min_snr"),
		MinToneDeltaDb: floatIfSet("gate.min_tone_delta_db"),
	}
	return mc, gc
}

// floatIfSet distinguishes an absent gate threshold from a configured zero.
func floatIfSet(key string) *float64 {
	if !configFile.Exists(key) {
		return nil
	}
	v := configFile.Float64(key)
	return &v
}

func buildConfig(mc config.ModemConf, gc config.GateConf) (modem.Config, frame.Version, error) {
	mc = mc.WithDefaults()
	if cli.Profile != "" {
		mc.Profile = cli.Profile
	}
	if cli.Version != "" {
		mc.Version = cli.Version
	}
	if cli.Legacy {
		mc.LegacyFallback = true
	}

	ts, err := config.SymbolPeriod(mc.Profile)
	if err != nil {
		return modem.Config{}, 0, err
	}
	v, err := frame.ParseVersion(mc.Version)
	if err != nil {
		return modem.Config{}, 0, err
	}

	log.Debugf("Using modem definition: %##v", mc)
	return modem.Config{
		SampleRate:     mc.SampleRate,
		F0:             mc.F0,
		F1:             mc.F1,
		SymbolPeriod:   ts,
		Amplitude:      mc.Amplitude,
		LegacyFallback: mc.LegacyFallback,
		Gate:           gc.Enabled,
		MinRMSDb:       gc.MinRMSDb,
		MinSNR:         gc.MinSNR,
		MinToneDeltaDb: gc.MinToneDeltaDb,
	}, v, nil
}

func main() {
	flags := kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	mc, gc := loadConfig()
	cfg, version, err := buildConfig(mc, gc)
	if err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}

	switch flags.Command() {
	case "send <text>":
		sender := modem.NewSender(cfg)
		sender.SetSeq(cli.Send.Seq)
		samples, enc, err := sender.Render(cli.Send.Text, version)
		if err != nil {
			log.Fatalf("Could not encode: %v", err)
		}
		if err := audio.WriteWAV(cli.Send.Out, samples, int(cfg.SampleRate)); err != nil {
			log.Fatalf("Could not write %s: %v", cli.Send.Out, err)
		}
		log.Infof("Wrote %s: %s frame seq=%d, %d payload bytes (compressed=%v), %d samples",
			cli.Send.Out, enc.Version, enc.Seq, enc.PayloadLen, enc.Compressed, len(samples))

	case "recv <file>":
		samples, rate, err := audio.ReadWAV(cli.Recv.File)
		if err != nil {
			log.Fatalf("Could not read %s: %v", cli.Recv.File, err)
		}
		cfg.SampleRate = float64(rate)
		cfg.FrontEndFilter = !cli.Recv.NoFilter

		res := modem.Demodulate(samples, cfg)
		for _, ev := range res.Frames {
			log.Infof("Frame %s seq=%d len=%d compressed=%v", ev.Version, ev.Seq, ev.Length, ev.Compressed)
			fmt.Println(ev.Text)
		}
		if len(res.Frames) == 0 {
			log.Warnf("No frames decoded (channel: %s)", res.Quality)
		}
		log.Infof("Stats: ok=%d crc_fail=%d len_invalid=%d decode_fail=%d resync=%d",
			res.Stats.OkFrames, res.Stats.CrcFail, res.Stats.LenInvalid,
			res.Stats.DecodeFail, res.Stats.ResyncCount)

	case "diag <file>":
		samples, rate, err := audio.ReadWAV(cli.Diag.File)
		if err != nil {
			log.Fatalf("Could not read %s: %v", cli.Diag.File, err)
		}
		cfg.SampleRate = float64(rate)
		ts := cfg.SymbolPeriod
		classifier := tone.NewClassifier(cfg.SampleRate, cfg.F0, cfg.F1, ts)

		n := classifier.WindowLen()
		for s := 0; s+n <= len(samples); s += n {
			m := classifier.Analyze(samples[s : s+n])
			label := tone.Diagnose(m)
			log.Infof("t=%6.2fs rms=%6.1fdB snr=%6.2f delta=%5.1fdB peak=%6.0fHz floor=%6.1fdB %s",
				float64(s)/cfg.SampleRate, m.RMSDb, m.SNR, m.ToneDeltaDb, m.PeakHz, m.NoiseFloorDb, label)
		}

	default:
		log.Info("Command not recognized")
	}
}
