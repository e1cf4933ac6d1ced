/*
Package token implements a fungible token with an owner gated transfer, the
asset ledger a vault can pay out from.

The whole supply is minted to the token owner. Only the owner can transfer
from its own balance, while any holder can approve a spender that later
moves the approved amount with TransferFrom.

Token implements dispatch.Callee, so a vault transaction targeting the token
address with a CallMsg payload is executed as a token call made by the vault.
*/
package token
