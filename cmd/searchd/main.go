// searchd is the control-plane server: it accepts one client connection,
// speaks the line-delimited JSON protocol in proto, and drives an MCTS
// search over a chess position with a neural network supplying move
// priors and position values.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	dual "github.com/alphabeth/puctsearch/dualnet"
	"github.com/alphabeth/puctsearch/mcts"
	"github.com/alphabeth/puctsearch/proto"
	"github.com/alphabeth/puctsearch/render"
	"github.com/alphabeth/puctsearch/treedump"
	"github.com/notnil/chess"
)

var (
	modelFlag = flag.String("model_path", "", "non-empty selects the built-in freshly initialized network (the path itself is not read); empty uses a uniform mock network")
	mockValue = flag.Float64("mock_value", 0, "constant position value the mock network reports, when model_path is empty")
	dotFlag   = flag.String("dump-dot", "", "write each search's root-children graph as Graphviz DOT to this path")
	renderDir = flag.String("render", "", "write a PNG snapshot of the position to this directory on every Load/Push")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ltime)

	port := proto.DefaultPort
	if arg := flag.Arg(0); arg != "" {
		p, err := strconv.Atoi(arg)
		if err != nil {
			log.Fatalf("searchd: invalid port %q: %s", arg, err)
		}
		port = p
	}

	srv, err := proto.Listen(fmt.Sprintf("0.0.0.0:%d", port), os.Stderr)
	if err != nil {
		log.Fatalf("searchd: listen: %s", err)
	}
	defer srv.Close()

	if *dotFlag != "" {
		srv.OnSearching = func(nodes []mcts.NodeSnapshot) {
			dot, err := treedump.DOT(nodes)
			if err != nil {
				log.Printf("searchd: dump-dot: %s", err)
				return
			}
			if err := os.WriteFile(*dotFlag, []byte(dot), 0o644); err != nil {
				log.Printf("searchd: dump-dot: %s", err)
			}
		}
	}

	if *renderDir != "" {
		if err := os.MkdirAll(*renderDir, 0o755); err != nil {
			log.Fatalf("searchd: render: %s", err)
		}
		frame := 0
		srv.OnPositionChange = func(pos *chess.Position) {
			path := fmt.Sprintf("%s/%04d.png", *renderDir, frame)
			frame++

			f, err := os.Create(path)
			if err != nil {
				log.Printf("searchd: render: %s", err)
				return
			}
			defer f.Close()

			if err := render.Board(pos, f); err != nil {
				log.Printf("searchd: render: %s", err)
			}
		}
	}

	log.Printf("searchd: listening on %s", srv.Addr())

	err = srv.Serve(func(params mcts.Params) (mcts.Inferencer, error) {
		if *modelFlag == "" {
			log.Print("searchd: no model_path given, using a uniform mock network")
			return dual.Mock{Value: float32(*mockValue)}, nil
		}

		conf := dual.DefaultConf()
		return dual.NewNetwork(conf)
	})
	if err != nil {
		log.Fatalf("searchd: serve: %s", err)
	}
}
