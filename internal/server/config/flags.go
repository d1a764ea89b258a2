package config

import (
	"flag"
	"os"
	"time"

	"github.com/jspark-dev/pantrykeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-q int      queue poll interval, seconds
//	-g int      generation timeout, seconds
//	-m string   SMTP host
//	-b string   S3 bucket name
//
// The function first filters os.Args to the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-q", "-g", "-m", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	queuePollInterval := fs.Int("q", int(config.QueuePollInterval.Seconds()), "queue poll interval (in seconds)")
	generationTimeout := fs.Int("g", int(config.GenerationTimeout.Seconds()), "generation timeout (in seconds)")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.QueuePollInterval = time.Duration(*queuePollInterval) * time.Second
	config.GenerationTimeout = time.Duration(*generationTimeout) * time.Second
}
