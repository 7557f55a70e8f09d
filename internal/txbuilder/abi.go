package txbuilder

// Minimal ABI fragments for the deployed contracts. Only the entry points the
// builder encodes are declared; the market contract intentionally has no sell
// function.

const stakingABI = `[
	{"type":"function","name":"stake","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"unstake","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"stakeAll","stateMutability":"nonpayable","inputs":[],"outputs":[]},
	{"type":"function","name":"unstakeAll","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const governanceABI = `[
	{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"proposalId","type":"uint256"},{"name":"support","type":"bool"}],"outputs":[]}
]`

const marketABI = `[
	{"type":"function","name":"buy","stateMutability":"nonpayable","inputs":[{"name":"assetId","type":"bytes32"},{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const erc20ABI = `[
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const vestingABI = `[
	{"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[
		{"name":"record","type":"tuple","components":[
			{"name":"beneficiary","type":"address"},
			{"name":"totalAmount","type":"uint256"}
		]},
		{"name":"merkleProof","type":"bytes32[]"}
	],"outputs":[]}
]`
