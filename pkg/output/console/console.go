package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/output"
	"github.com/ericogr/lsm9ds1-to-mqtt/pkg/sensor"
)

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

func (c *ConsoleOutput) Publish(readings []sensor.Reading) error {
	for _, r := range readings {
		_, err := fmt.Fprintf(c.w, "%s channel=%s raw=%d,%d,%d x=%.6f y=%.6f z=%.6f unit=%s\n",
			r.Timestamp.Format(time.RFC3339), r.Channel,
			r.Raw[0], r.Raw[1], r.Raw[2],
			r.Value[0], r.Value[1], r.Value[2], r.Unit)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleOutput) Close() error { return nil }
