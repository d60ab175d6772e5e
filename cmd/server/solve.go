package main

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/zucenko/pathfinder/model"
	"github.com/zucenko/pathfinder/server"
	"strconv"
	"strings"
)

func newSolveCmd() *cobra.Command {
	var startFlag, endFlag, connectivity string
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Search one map file and print the explored grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if connectivity != "" {
				cfg.Search.Connectivity = connectivity
			}
			if cfg.MapFile == "" {
				return errors.New("--map is required")
			}
			options, err := cfg.Search.Options()
			if err != nil {
				return err
			}
			start, err := parsePosition(startFlag)
			if err != nil {
				return errors.Wrap(err, "--start")
			}
			end, err := parsePosition(endFlag)
			if err != nil {
				return errors.Wrap(err, "--end")
			}

			grid := model.NewGrid()
			if err := server.LoadMapFile(cfg.MapFile, grid); err != nil {
				return err
			}
			controller := server.NewSearchController(grid, options...)
			if _, err := controller.StartSearch(start, end); err != nil {
				return err
			}
			controller.Wait()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, grid.Dump())
			last, _ := controller.Last()
			if last.Err != nil {
				return last.Err
			}
			if !last.Found {
				fmt.Fprintf(out, "no path from %v to %v, %d cells expanded\n", start, end, last.Expanded)
				return nil
			}
			fmt.Fprintf(out, "path of %d cells, cost %g, %d cells expanded in %v\n",
				last.PathLength, last.Cost, last.Expanded, last.Duration)
			return nil
		},
	}
	cmd.Flags().StringVarP(&mapFlag, "map", "m", "", "map file to search")
	cmd.Flags().StringVar(&startFlag, "start", "", "start cell as row,col")
	cmd.Flags().StringVar(&endFlag, "end", "", "end cell as row,col")
	cmd.Flags().StringVar(&connectivity, "connectivity", "", "eight or four (overrides config)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func parsePosition(s string) (model.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Unset, errors.Errorf("%q: want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return model.Unset, errors.Wrapf(err, "row in %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return model.Unset, errors.Wrapf(err, "col in %q", s)
	}
	return model.Position{Row: row, Col: col}, nil
}
