package txbuild

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/lamportlabs/sol402/types"
)

// MemoProgramID is the SPL Memo program.
var MemoProgramID = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TySNcWxMyWCqXgDLGmfcHr")

// DeriveAssociatedTokenAddress derives the per-owner, per-mint token account
// address.
func DeriveAssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, types.NewPaymentError(types.ErrTransactionFailed, "associated token address derivation failed", err)
	}
	return ata, nil
}

// buildTransferCheckedInstruction creates an SPL Token TransferChecked
// instruction moving amount base units of mint from source to destination.
func buildTransferCheckedInstruction(
	source, mint, destination solana.PublicKey,
	owner solana.PublicKey,
	amount uint64,
	decimals uint8,
) solana.Instruction {
	return token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(decimals).
		SetSourceAccount(source).
		SetDestinationAccount(destination).
		SetMintAccount(mint).
		SetOwnerAccount(owner).
		Build()
}

// buildCreateIdempotentATAInstruction creates the recipient's associated
// token account, funded by payer. The CreateIdempotent variant (instruction
// index 1) succeeds even when the account already exists, which keeps the
// provisioning and the transfer atomic in one transaction.
//
// Accounts:
// [0] payer (signer, writable) - funds the account creation
// [1] associatedToken (writable) - the ATA to create
// [2] owner - the owner of the new ATA
// [3] mint - the SPL token mint
// [4] systemProgram
// [5] tokenProgram
func buildCreateIdempotentATAInstruction(payer, owner, mint solana.PublicKey) (solana.Instruction, error) {
	ata, err := DeriveAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, err
	}

	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}

	// Instruction data is just [1] for CreateIdempotent.
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		accounts,
		[]byte{1},
	), nil
}

// buildMemoInstruction attaches a memo string to the transaction.
func buildMemoInstruction(memo string, signer solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: signer, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(MemoProgramID, accounts, []byte(memo))
}
