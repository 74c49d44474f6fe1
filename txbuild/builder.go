// Package txbuild constructs unsigned transfer transactions satisfying a
// payment challenge: a native lamport transfer, or an SPL token transfer with
// recipient account provisioning when needed.
package txbuild

import (
	"context"
	"math"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/types"
)

// BuildTransfer builds an unsigned transaction moving the required amount
// from payer to the requirements' recipient. The validity anchor (latest
// blockhash) is fetched last, immediately before the caller signs, to keep
// the staleness window small. The payer is also the fee payer.
func BuildTransfer(ctx context.Context, lc ledger.Client, req *types.PaymentRequirements, payer solana.PublicKey) (*solana.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Scheme != types.SchemeExact {
		return nil, types.NewPaymentError(types.ErrInvalidRequirements,
			"scheme "+req.Scheme+" cannot be paid by this client", nil)
	}

	amount, err := req.BaseAmount()
	if err != nil {
		return nil, err
	}
	lamports, err := toInstructionAmount(amount)
	if err != nil {
		return nil, err
	}

	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrInvalidRequirements, "recipient is not a valid address", err)
	}

	asset, err := types.LookupAsset(req.Network, req.Token)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if asset.Native() {
		instructions = append(instructions,
			system.NewTransferInstruction(lamports, payer, recipient).Build())
	} else {
		tokenIxs, err := buildTokenTransfer(ctx, lc, asset, payer, recipient, lamports)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, tokenIxs...)
	}

	if req.Memo != "" {
		instructions = append(instructions, buildMemoInstruction(req.Memo, payer))
	}

	blockhash, err := lc.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash,
		solana.TransactionPayer(payer),
	)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "transaction assembly failed", err)
	}
	return tx, nil
}

// buildTokenTransfer assembles the SPL instructions: a missing payer token
// account is a hard stop, a missing recipient account is provisioned in the
// same transaction.
func buildTokenTransfer(
	ctx context.Context,
	lc ledger.Client,
	asset types.AssetDescriptor,
	payer, recipient solana.PublicKey,
	amount uint64,
) ([]solana.Instruction, error) {
	mint, err := solana.PublicKeyFromBase58(asset.Mint)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrInvalidRequirements, "asset mint is not a valid address", err)
	}

	sourceATA, err := DeriveAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, err
	}
	sourceExists, err := lc.AccountExists(ctx, sourceATA)
	if err != nil {
		return nil, err
	}
	if !sourceExists {
		return nil, types.NewPaymentError(types.ErrMissingSourceAccount,
			"payer holds no token account for mint "+asset.Mint, nil)
	}

	destATA, err := DeriveAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, err
	}
	destExists, err := lc.AccountExists(ctx, destATA)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction
	if !destExists {
		createIx, err := buildCreateIdempotentATAInstruction(payer, recipient, mint)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, createIx)
	}
	instructions = append(instructions,
		buildTransferCheckedInstruction(sourceATA, mint, destATA, payer, amount, asset.Decimals))
	return instructions, nil
}

// toInstructionAmount narrows an arbitrary-precision amount to the uint64 the
// ledger instruction encoding carries. Amounts above that bound are rejected
// rather than truncated.
func toInstructionAmount(amount *big.Int) (uint64, error) {
	if !amount.IsUint64() {
		return 0, types.NewPaymentError(types.ErrAmountOutOfRange,
			"amount "+amount.String()+" exceeds the maximum transferable value "+
				new(big.Int).SetUint64(math.MaxUint64).String(), nil)
	}
	return amount.Uint64(), nil
}
