// Command inspect-grid loads a warehouse layout file and prints only an
// ASCII rendering of the grid (# obstacle, A agent, R rack, G gate,
// S station, . empty), for eyeballing a layout before pointing
// warehouse-server at it.
package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"

	"github.com/hivesim/warehouse"
	"github.com/hivesim/warehouse/action"
)

type layoutFile struct {
	Grid struct {
		Height int `toml:"height"`
		Width  int `toml:"width"`
	} `toml:"grid"`
	Obstacles [][2]int `toml:"obstacles"`
	Racks     []struct {
		Row, Col      int
		Capacity      float64 `toml:"capacity"`
		ContainerMass float64 `toml:"container_mass"`
	} `toml:"racks"`
	Gates []struct {
		Row, Col int
	} `toml:"gates"`
	Stations []struct {
		Row, Col int
	} `toml:"stations"`
	Agents []struct {
		Row, Col     int
		Dir          string
		LoadCapacity float64 `toml:"load_capacity"`
	} `toml:"agents"`
}

func main() {
	var path string
	root := &cobra.Command{
		Use:   "inspect-grid",
		Short: "Render a warehouse layout file as ASCII",
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(path)
		},
	}
	root.Flags().StringVar(&path, "layout", "layout.toml", "path to the layout file")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func inspect(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	var lf layoutFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("decode layout: %w", err)
	}

	cfg := warehouse.DefaultConfig()
	cfg.Grid.Height, cfg.Grid.Width = lf.Grid.Height, lf.Grid.Width
	wh := warehouse.New(cfg)

	for _, o := range lf.Obstacles {
		wh.Grid().PlaceObstacle(o[0], o[1])
	}
	for _, r := range lf.Racks {
		wh.RegisterRack(r.Row, r.Col, r.Capacity, r.ContainerMass)
	}
	for _, g := range lf.Gates {
		wh.RegisterGate(g.Row, g.Col)
	}
	for _, s := range lf.Stations {
		wh.RegisterStation(s.Row, s.Col)
	}
	for _, a := range lf.Agents {
		wh.RegisterAgent(action.Pose{Row: a.Row, Col: a.Col, Dir: parseDir(a.Dir)}, a.LoadCapacity)
	}

	printGrid(wh)
	return nil
}

func parseDir(s string) action.Dir {
	switch s {
	case "E", "east":
		return action.East
	case "S", "south":
		return action.South
	case "W", "west":
		return action.West
	default:
		return action.North
	}
}

func printGrid(wh *warehouse.Warehouse) {
	g := wh.Grid()
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			cell := g.At(row, col)
			switch {
			case cell.Kind == warehouse.CellObstacle:
				fmt.Print("#")
			case func() bool { _, ok := cell.Agent(); return ok }():
				fmt.Print("A")
			case cell.Kind == warehouse.CellRack:
				fmt.Print("R")
			case cell.Kind == warehouse.CellGate:
				fmt.Print("G")
			case cell.Kind == warehouse.CellStation:
				fmt.Print("S")
			default:
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}
