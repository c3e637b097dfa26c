package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rawbytedev/bytebuf/internal/logger"
	"github.com/rawbytedev/bytebuf/scenario"
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay buffer scenarios from a YAML file",
	Long: `Replay scripted buffer operations and check the expected state after each step.

Example scenario file:
  scenarios:
    - name: reserve then retry
      steps:
        - {op: new, n: 4}
        - {op: put, bytes: [1, 2]}
        - {op: put, bytes: [3, 4, 5], expect: {err: capacity}}
        - {op: reserve, n: 1}
        - {op: put, bytes: [3, 4, 5], expect: {frozen: [1, 2, 3, 4, 5]}}`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenarios, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		failed := 0
		for _, sc := range scenarios {
			trace, err := sc.Run()
			for i, st := range trace {
				logger.Debugf("%s step %d %s: len=%d cap=%d err=%v", sc.Name, i, st.Op, st.Len, st.Cap, st.Err)
			}
			if err != nil {
				failed++
				logger.Errorf("%v", err)
				continue
			}
			logger.Infow("scenario passed", "name", sc.Name, "steps", len(trace))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scenarios failed", failed, len(scenarios))
		}
		return nil
	},
}
