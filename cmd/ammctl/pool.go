package main

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammcore/internal/amm"
	"ammcore/internal/curve"
	"ammcore/internal/ledger"
	"ammcore/internal/pool"
)

type reservesView struct {
	X      string `json:"x"`
	Y      string `json:"y"`
	RawX   uint64 `json:"raw_x"`
	RawY   uint64 `json:"raw_y"`
	Supply uint64 `json:"supply"`
}

type configView struct {
	Pool      string  `json:"pool"`
	Seed      uint64  `json:"seed"`
	MintX     string  `json:"mint_x"`
	MintY     string  `json:"mint_y"`
	MintLP    string  `json:"mint_lp"`
	FeeBps    uint16  `json:"fee_bps"`
	Authority *string `json:"authority"`
	Locked    bool    `json:"locked"`
}

func (s *session) reservesView(cfg pool.Config, r curve.Reserves) reservesView {
	return reservesView{
		X:      s.amount(r.X, cfg.MintX),
		Y:      s.amount(r.Y, cfg.MintY),
		RawX:   r.X,
		RawY:   r.Y,
		Supply: r.Supply,
	}
}

func newConfigView(key solana.PublicKey, cfg pool.Config) configView {
	view := configView{
		Pool:   key.String(),
		Seed:   cfg.Seed,
		MintX:  cfg.MintX.String(),
		MintY:  cfg.MintY.String(),
		MintLP: cfg.MintLP.String(),
		FeeBps: cfg.FeeBps,
		Locked: cfg.Locked,
	}
	if cfg.Authority != nil {
		authority := cfg.Authority.String()
		view.Authority = &authority
	}
	return view
}

func receiptFields(r ledger.Receipt) map[string]interface{} {
	return map[string]interface{}{
		"sequence":  r.Sequence,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// runMutation opens a session, runs fn and saves the ledger when fn succeeds.
func runMutation(cmd *cobra.Command, fn func(s *session) (interface{}, error)) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out, err := fn(s)
	if err != nil {
		return err
	}
	if err := s.commit(); err != nil {
		return err
	}
	return printJSON(cmd, out)
}

// runRead opens a session and runs fn without saving.
func runRead(cmd *cobra.Command, fn func(s *session) (interface{}, error)) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	out, err := fn(s)
	if err != nil {
		return err
	}
	return printJSON(cmd, out)
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a pool for a mint pair",
		RunE: func(cmd *cobra.Command, _ []string) error {
			initializer, err := keyFlag(cmd, "initializer")
			if err != nil {
				return err
			}
			mintX, err := keyFlag(cmd, "mint-x")
			if err != nil {
				return err
			}
			mintY, err := keyFlag(cmd, "mint-y")
			if err != nil {
				return err
			}
			authority, err := optionalKeyFlag(cmd, "authority")
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetUint64("seed")
			fee, _ := cmd.Flags().GetUint16("fee-bps")

			return runMutation(cmd, func(s *session) (interface{}, error) {
				res, err := s.engine.Initialize(s.ctx, amm.InitializeRequest{
					Initializer: initializer,
					MintX:       mintX,
					MintY:       mintY,
					Seed:        seed,
					FeeBps:      fee,
					Authority:   authority,
				})
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"config":    newConfigView(res.Pool, res.Config),
					"vault_x":   res.VaultX.String(),
					"vault_y":   res.VaultY.String(),
					"locked_lp": res.LockedLP.String(),
					"receipt":   receiptFields(res.Receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("initializer", "", "initializer key (base58)")
	cmd.Flags().String("mint-x", "", "mint of asset X (base58)")
	cmd.Flags().String("mint-y", "", "mint of asset Y (base58)")
	cmd.Flags().Uint64("seed", 0, "pool seed")
	cmd.Flags().Uint16("fee-bps", 30, "swap fee in basis points")
	cmd.Flags().String("authority", "", "administrative authority; empty for an immutable pool")
	return cmd
}

func newDepositCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity to a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			provider, err := keyFlag(cmd, "provider")
			if err != nil {
				return err
			}
			shares, _ := cmd.Flags().GetUint64("shares")
			maxX, _ := cmd.Flags().GetUint64("max-x")
			maxY, _ := cmd.Flags().GetUint64("max-y")

			return runMutation(cmd, func(s *session) (interface{}, error) {
				res, err := s.engine.Deposit(s.ctx, amm.DepositRequest{
					Pool:     key,
					Provider: provider,
					Shares:   shares,
					MaxX:     maxX,
					MaxY:     maxY,
				})
				if err != nil {
					return nil, err
				}
				cfg, err := s.ledger.LoadConfig(s.ctx, key)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"pool":          key.String(),
					"amount_x":      s.amount(res.Amounts.X, cfg.MintX),
					"amount_y":      s.amount(res.Amounts.Y, cfg.MintY),
					"shares":        res.Shares,
					"locked_shares": res.LockedShares,
					"bootstrap":     res.Bootstrap,
					"reserves":      s.reservesView(cfg, res.Reserves),
					"receipt":       receiptFields(res.Receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("provider", "", "provider key (base58)")
	cmd.Flags().Uint64("shares", 0, "shares to mint; ignored on the first deposit")
	cmd.Flags().Uint64("max-x", 0, "most X to pay, raw units")
	cmd.Flags().Uint64("max-y", 0, "most Y to pay, raw units")
	return cmd
}

func newWithdrawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Burn shares for both pool assets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			provider, err := keyFlag(cmd, "provider")
			if err != nil {
				return err
			}
			shares, _ := cmd.Flags().GetUint64("shares")
			minX, _ := cmd.Flags().GetUint64("min-x")
			minY, _ := cmd.Flags().GetUint64("min-y")

			return runMutation(cmd, func(s *session) (interface{}, error) {
				res, err := s.engine.Withdraw(s.ctx, amm.WithdrawRequest{
					Pool:     key,
					Provider: provider,
					Shares:   shares,
					MinX:     minX,
					MinY:     minY,
				})
				if err != nil {
					return nil, err
				}
				cfg, err := s.ledger.LoadConfig(s.ctx, key)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"pool":     key.String(),
					"amount_x": s.amount(res.Amounts.X, cfg.MintX),
					"amount_y": s.amount(res.Amounts.Y, cfg.MintY),
					"shares":   res.Shares,
					"reserves": s.reservesView(cfg, res.Reserves),
					"receipt":  receiptFields(res.Receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("provider", "", "provider key (base58)")
	cmd.Flags().Uint64("shares", 0, "shares to burn")
	cmd.Flags().Uint64("min-x", 0, "least X to receive, raw units")
	cmd.Flags().Uint64("min-y", 0, "least Y to receive, raw units")
	return cmd
}

func newSwapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "swap",
		Short: "Sell an exact amount of one pool asset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			trader, err := keyFlag(cmd, "trader")
			if err != nil {
				return err
			}
			sell, _ := cmd.Flags().GetString("sell")
			side, err := curve.ParseSide(sell)
			if err != nil {
				return err
			}
			amountIn, _ := cmd.Flags().GetUint64("amount")
			minOut, _ := cmd.Flags().GetUint64("min-out")

			return runMutation(cmd, func(s *session) (interface{}, error) {
				res, err := s.engine.Swap(s.ctx, amm.SwapRequest{
					Pool:     key,
					Trader:   trader,
					SellX:    side == curve.SideX,
					AmountIn: amountIn,
					MinOut:   minOut,
				})
				if err != nil {
					return nil, err
				}
				cfg, err := s.ledger.LoadConfig(s.ctx, key)
				if err != nil {
					return nil, err
				}
				mintIn, mintOut := cfg.Mint(res.Side), cfg.Mint(res.Side.Opposite())
				return map[string]interface{}{
					"pool":       key.String(),
					"sell":       res.Side.String(),
					"amount_in":  s.amount(res.Deposit, mintIn),
					"amount_out": s.amount(res.Withdraw, mintOut),
					"fee":        s.amount(res.Fee, mintIn),
					"reserves":   s.reservesView(cfg, res.Reserves),
					"receipt":    receiptFields(res.Receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("trader", "", "trader key (base58)")
	cmd.Flags().String("sell", "x", "asset to sell (x or y)")
	cmd.Flags().Uint64("amount", 0, "amount to sell, raw units")
	cmd.Flags().Uint64("min-out", 0, "least output to accept, raw units")
	return cmd
}

func newQuoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a swap without executing it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			sell, _ := cmd.Flags().GetString("sell")
			side, err := curve.ParseSide(sell)
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			exactOut, _ := cmd.Flags().GetBool("exact-out")

			return runRead(cmd, func(s *session) (interface{}, error) {
				res, err := s.engine.Quote(s.ctx, amm.QuoteRequest{
					Pool:    key,
					SellX:   side == curve.SideX,
					Amount:  amount,
					ExactIn: !exactOut,
				})
				if err != nil {
					return nil, err
				}
				cfg, err := s.ledger.LoadConfig(s.ctx, key)
				if err != nil {
					return nil, err
				}
				mintIn, mintOut := cfg.Mint(side), cfg.Mint(side.Opposite())
				return map[string]interface{}{
					"pool":       key.String(),
					"sell":       side.String(),
					"exact_in":   !exactOut,
					"amount_in":  s.amount(res.Deposit, mintIn),
					"amount_out": s.amount(res.Withdraw, mintOut),
					"fee":        s.amount(res.Fee, mintIn),
				}, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("sell", "x", "asset to sell (x or y)")
	cmd.Flags().Uint64("amount", 0, "input amount, or output amount with --exact-out")
	cmd.Flags().Bool("exact-out", false, "treat --amount as the desired output")
	return cmd
}

func newLockCmd(locked bool) *cobra.Command {
	use, short := "unlock", "Resume deposits and swaps"
	if locked {
		use, short = "lock", "Stop deposits and swaps"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			signer, err := keyFlag(cmd, "signer")
			if err != nil {
				return err
			}

			return runMutation(cmd, func(s *session) (interface{}, error) {
				req := amm.AdminRequest{Pool: key, Signer: signer}
				var (
					cfg pool.Config
					err error
				)
				if locked {
					cfg, err = s.engine.Lock(s.ctx, req)
				} else {
					cfg, err = s.engine.Unlock(s.ctx, req)
				}
				if err != nil {
					return nil, err
				}
				return newConfigView(key, cfg), nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("signer", "", "administrative authority (base58)")
	return cmd
}

func newSetAuthorityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-authority",
		Short: "Hand over or renounce pool administration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := keyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			signer, err := keyFlag(cmd, "signer")
			if err != nil {
				return err
			}
			next, err := optionalKeyFlag(cmd, "new-authority")
			if err != nil {
				return err
			}
			renounce, _ := cmd.Flags().GetBool("renounce")
			if next == nil && !renounce {
				return fmt.Errorf("--new-authority or --renounce is required")
			}
			if next != nil && renounce {
				return fmt.Errorf("--new-authority and --renounce are exclusive")
			}

			return runMutation(cmd, func(s *session) (interface{}, error) {
				cfg, err := s.engine.SetAuthority(s.ctx, amm.SetAuthorityRequest{
					Pool:         key,
					Signer:       signer,
					NewAuthority: next,
				})
				if err != nil {
					return nil, err
				}
				return newConfigView(key, cfg), nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().String("signer", "", "current administrative authority (base58)")
	cmd.Flags().String("new-authority", "", "next administrative authority (base58)")
	cmd.Flags().Bool("renounce", false, "remove the authority for good")
	return cmd
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Show pools and their reserves",
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := optionalKeyFlag(cmd, "pool")
			if err != nil {
				return err
			}
			seed, _ := cmd.Flags().GetUint64("seed")
			bySeed := cmd.Flags().Changed("seed")

			return runRead(cmd, func(s *session) (interface{}, error) {
				var keys []solana.PublicKey
				switch {
				case key != nil:
					keys = []solana.PublicKey{*key}
				case bySeed:
					derived, err := s.engine.PoolKey(seed)
					if err != nil {
						return nil, err
					}
					keys = []solana.PublicKey{derived}
				default:
					_, all, err := s.ledger.Configs(s.ctx)
					if err != nil {
						return nil, err
					}
					keys = all
				}

				views := make([]map[string]interface{}, 0, len(keys))
				for _, k := range keys {
					st, err := s.engine.State(s.ctx, k)
					if err != nil {
						return nil, err
					}
					views = append(views, map[string]interface{}{
						"config":    newConfigView(st.Pool, st.Config),
						"vault_x":   st.VaultX.String(),
						"vault_y":   st.VaultY.String(),
						"locked_lp": st.LockedLP.String(),
						"reserves":  s.reservesView(st.Config, st.Reserves),
					})
				}
				return views, nil
			})
		},
	}
	cmd.Flags().String("pool", "", "pool key (base58)")
	cmd.Flags().Uint64("seed", 0, "derive the pool key from a seed")
	return cmd
}
