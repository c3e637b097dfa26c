package main

import (
	"bytes"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/bytebuf/internal/logger"
	"github.com/rawbytedev/bytebuf/pkg/compactwire"
)

var profileFlags struct {
	iterations int
	payload    int
	headroom   int
	flushEvery int
	compress   bool
	memprofile string
	pprofAddr  string
	hold       time.Duration
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Encode compactwire frames into a buffer in a loop",
	Long: `Encode data frames into a reserved buffer, flushing every --flush-every frames,
then decode the flushed output to check it.

Examples:
  bufprof profile --iterations 100000 --memprofile mem.prof
  bufprof profile --pprof localhost:6060 --hold 5m`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := profileFlags
		if f.pprofAddr != "" {
			go func() {
				logger.Errorf("pprof server: %v", http.ListenAndServe(f.pprofAddr, nil))
			}()
		}
		if f.memprofile != "" {
			runtime.MemProfileRate = 1
		}

		var flags byte = compactwire.FlagHasOffsetTable
		if f.compress {
			flags |= compactwire.FlagCompressed
		}
		payload := bytes.Repeat([]byte("azerty"), max(f.payload/6, 1))
		offsets := []uint32{0, 6, 12, 18}

		enc := compactwire.NewEncoder(compactwire.Options{Headroom: f.headroom})
		defer enc.Close()
		var dec compactwire.Decoder
		defer dec.Close()

		start := time.Now()
		var frames, flushed int
		for i := 0; i < f.iterations; i++ {
			if err := enc.EncodeData(payload, flags, offsets); err != nil {
				return err
			}
			if (i+1)%max(f.flushEvery, 1) == 0 || i == f.iterations-1 {
				n, err := check(&dec, enc.Flush(), payload)
				if err != nil {
					return err
				}
				frames += n
				flushed++
				logger.Debugf("flush %d: %d frames, %d bytes available", flushed, n, enc.Available())
			}
		}
		logger.Infow("profile done",
			"frames", frames,
			"flushes", flushed,
			"elapsed", time.Since(start).String(),
		)

		if f.memprofile != "" {
			out, err := os.Create(f.memprofile)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := pprof.WriteHeapProfile(out); err != nil {
				return err
			}
			logger.Infof("heap profile written to %s", f.memprofile)
		}
		if f.hold > 0 {
			time.Sleep(f.hold)
		}
		return nil
	},
}

func check(dec *compactwire.Decoder, out, payload []byte) (int, error) {
	frames, err := compactwire.ReadFrames(out)
	if err != nil {
		return 0, err
	}
	for i, fr := range frames {
		df, err := dec.DataBody(fr.Body)
		if err != nil {
			return 0, fmt.Errorf("frame %d: %w", i, err)
		}
		if !bytes.Equal(df.Payload, payload) {
			return 0, fmt.Errorf("frame %d: payload mismatch", i)
		}
	}
	return len(frames), nil
}

func init() {
	fl := profileCmd.Flags()
	fl.IntVarP(&profileFlags.iterations, "iterations", "n", 10000, "frames to encode")
	fl.IntVar(&profileFlags.payload, "payload", 192, "payload size in bytes")
	fl.IntVar(&profileFlags.headroom, "headroom", 4096, "bytes reserved up front and after each flush")
	fl.IntVar(&profileFlags.flushEvery, "flush-every", 16, "frames per flush")
	fl.BoolVar(&profileFlags.compress, "compress", false, "zstd compress payloads")
	fl.StringVar(&profileFlags.memprofile, "memprofile", "", "write a heap profile to this file")
	fl.StringVar(&profileFlags.pprofAddr, "pprof", "", "serve net/http/pprof on this address")
	fl.DurationVar(&profileFlags.hold, "hold", 0, "keep running this long after the loop")
}
