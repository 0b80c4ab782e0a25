package main

import (
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	prefabList := flag.String("prefabs", "guard,wanderer,coward", "comma-separated prefab names to spawn")
	seed := flag.Int64("seed", 1, "world RNG seed")
	debug := flag.Bool("debug", false, "show active goals and paths")
	watch := flag.Bool("watch", false, "reload agents when prefabs/ changes on disk")
	flag.Parse()

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("arena demo")

	game, err := NewGame(strings.Split(*prefabList, ","), *seed, *debug, *watch)
	if err != nil {
		log.Fatal(err)
	}

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
