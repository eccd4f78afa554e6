package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"ammcore/internal/authority"
	"ammcore/internal/ledger"
)

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage token mints and holdings in the local ledger",
	}
	cmd.AddCommand(newAssetCreateCmd(), newAssetFundCmd(), newAssetBalanceCmd())
	return cmd
}

func newAssetCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new mint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mintAuthority, err := keyFlag(cmd, "authority")
			if err != nil {
				return err
			}
			mint, err := optionalKeyFlag(cmd, "mint")
			if err != nil {
				return err
			}
			if mint == nil {
				generated := solana.NewWallet().PublicKey()
				mint = &generated
			}
			decimals, _ := cmd.Flags().GetUint8("decimals")

			return runMutation(cmd, func(s *session) (interface{}, error) {
				receipt, err := s.ledger.Execute(s.ctx, ledger.Tx{
					Signers: []solana.PublicKey{mintAuthority},
					Ops:     []ledger.Op{ledger.CreateMint(*mint, decimals, mintAuthority)},
				})
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"mint":      mint.String(),
					"decimals":  decimals,
					"authority": mintAuthority.String(),
					"receipt":   receiptFields(receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("mint", "", "mint key (base58); generated when empty")
	cmd.Flags().Uint8("decimals", 6, "display decimals")
	cmd.Flags().String("authority", "", "mint authority (base58)")
	return cmd
}

func newAssetFundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund",
		Short: "Mint tokens into an owner's holding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mint, err := keyFlag(cmd, "mint")
			if err != nil {
				return err
			}
			owner, err := keyFlag(cmd, "owner")
			if err != nil {
				return err
			}
			mintAuthority, err := keyFlag(cmd, "authority")
			if err != nil {
				return err
			}
			amount, _ := cmd.Flags().GetUint64("amount")
			if amount == 0 {
				return fmt.Errorf("--amount must be positive")
			}

			return runMutation(cmd, func(s *session) (interface{}, error) {
				account, err := authority.Holder(owner, mint)
				if err != nil {
					return nil, err
				}
				receipt, err := s.ledger.Execute(s.ctx, ledger.Tx{
					Signers: []solana.PublicKey{mintAuthority},
					Ops: []ledger.Op{
						ledger.EnsureAccount(account, owner, mint),
						ledger.MintTo(mint, account, amount, mintAuthority),
					},
				})
				if err != nil {
					return nil, err
				}
				balance, err := s.ledger.Balance(s.ctx, account)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"account": account.String(),
					"owner":   owner.String(),
					"mint":    mint.String(),
					"balance": s.amount(balance, mint),
					"receipt": receiptFields(receipt),
				}, nil
			})
		},
	}
	cmd.Flags().String("mint", "", "mint key (base58)")
	cmd.Flags().String("owner", "", "holder owner (base58)")
	cmd.Flags().String("authority", "", "mint authority (base58)")
	cmd.Flags().Uint64("amount", 0, "amount to mint, raw units")
	return cmd
}

func newAssetBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show an owner's holding of a mint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mint, err := keyFlag(cmd, "mint")
			if err != nil {
				return err
			}
			owner, err := keyFlag(cmd, "owner")
			if err != nil {
				return err
			}

			return runRead(cmd, func(s *session) (interface{}, error) {
				account, err := authority.Holder(owner, mint)
				if err != nil {
					return nil, err
				}
				balance, err := s.ledger.Balance(s.ctx, account)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"account": account.String(),
					"balance": s.amount(balance, mint),
					"raw":     balance,
				}, nil
			})
		},
	}
	cmd.Flags().String("mint", "", "mint key (base58)")
	cmd.Flags().String("owner", "", "holder owner (base58)")
	return cmd
}
