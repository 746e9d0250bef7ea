package conf

import "github.com/spf13/viper"

// setDefaultConfig registers viper defaults for every Settings field so a
// partial or missing config file still produces a usable Settings value.
func setDefaultConfig() {
	viper.SetDefault("capture.width", 1280)
	viper.SetDefault("capture.height", 720)
	viper.SetDefault("capture.fps", 30)

	viper.SetDefault("ring.ramseconds", 10.0)
	viper.SetDefault("ring.totalseconds", 60.0)
	viper.SetDefault("ring.codecquality", 85)
	viper.SetDefault("ring.tempdir", "")
	viper.SetDefault("ring.diskqueuesize", 32)

	viper.SetDefault("systemaudio.samplerate", 48000)
	viper.SetDefault("systemaudio.channels", 2)
	viper.SetDefault("systemaudio.capacity", 0)

	viper.SetDefault("micaudio.samplerate", 48000)
	viper.SetDefault("micaudio.channels", 1)
	viper.SetDefault("micaudio.capacity", 0)

	viper.SetDefault("extraction.defaultseconds", 30.0)
	viper.SetDefault("extraction.outputdir", "")

	viper.SetDefault("log.path", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", true)
	viper.SetDefault("log.rotation.maxsizemb", 100)
	viper.SetDefault("log.rotation.maxbackups", 3)
	viper.SetDefault("log.rotation.maxagedays", 28)
	viper.SetDefault("log.rotation.compress", true)

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.addr", "127.0.0.1:9962")
}
