// Package game implements a single-seat blackjack table.
//
// The main type is Game, which runs one round at a time through the states
// Betting, PlayerTurn, DealerTurn and RoundOver.
//
// # Basic Usage
//
//	rng := rand.New(rand.NewSource(42))
//	g := game.New(rng, game.DefaultRules())
//	g.PlaceBet(10)
//	g.DealInitialCards()
//	for g.State() == game.PlayerTurn {
//	    g.PlayerAction(game.Stand)
//	}
//	results, _ := g.RoundResults()
//	g.ResetRound()
//
// # Card Observers
//
// Every card leaves the shoe through one internal draw path, which forwards it
// to the registered CardObserver and resets the observer when the shoe
// reshuffles. Counting strategies register themselves with WithObserver or
// SetObserver and never read the shoe directly.
//
// # Deterministic Testing
//
// Pass a seeded *rand.Rand, or supply a stacked shoe with WithShoe:
//
//	shoe, _ := deck.NewStackedShoe(rng, 1, 0, deck.MustParseCards("As9hKd7c")...)
//	g := game.New(rng, rules, game.WithShoe(shoe))
package game
