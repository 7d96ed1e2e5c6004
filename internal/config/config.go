package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

type Config struct {
	Mail
	Canonical
	AWS
	HTTP
}

type Mail struct {
	Recipient string
	Sender    string
}

// Canonical is the fixed location of the latest validated file, configured
// once at process start.
type Canonical struct {
	Bucket string
	Key    string
}

type AWS struct {
	Region string
}

type HTTP struct {
	Host         string
	Port         string
	IdleTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func Load(cmd *cli.Command) *Config {
	return &Config{
		Mail: Mail{
			Recipient: cmd.String("recipient"),
			Sender:    cmd.String("sender"),
		},
		Canonical: Canonical{
			Bucket: cmd.String("output-bucket"),
			Key:    cmd.String("output-key"),
		},
		AWS: AWS{
			Region: cmd.String("aws-region"),
		},
		HTTP: HTTP{
			Host:         cmd.String("http-host"),
			Port:         cmd.String("http-port"),
			IdleTimeout:  cmd.Duration("http-idle-timeout"),
			ReadTimeout:  cmd.Duration("http-read-timeout"),
			WriteTimeout: cmd.Duration("http-write-timeout"),
		},
	}
}
