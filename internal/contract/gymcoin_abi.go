package contract

// GymCoin names its rates from the contract's side: sellRate() is what the
// contract sells GC at (our buy rate) and buyRate() is what it buys GC back
// at (our sell rate).
const gymCoinABIJSON = `[
  {"type":"constructor","stateMutability":"nonpayable","inputs":[{"name":"_userProfile","type":"address"}]},
  {"type":"function","name":"buy","stateMutability":"payable","inputs":[{"name":"gcAmount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"sell","stateMutability":"nonpayable","inputs":[{"name":"gcAmount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setRates","stateMutability":"nonpayable","inputs":[{"name":"_sellRate","type":"uint256"},{"name":"_buyRate","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"sellRate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"buyRate","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"event","name":"Transfer","anonymous":false,"inputs":[{"name":"from","type":"address","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]},
  {"type":"receive","stateMutability":"payable"}
]`

const userProfileABIJSON = `[
  {"type":"function","name":"registerUser","stateMutability":"nonpayable","inputs":[{"name":"_username","type":"string"},{"name":"_email","type":"string"}],"outputs":[]},
  {"type":"function","name":"getUserInfo","stateMutability":"view","inputs":[{"name":"userAddress","type":"address"}],"outputs":[{"name":"username","type":"string"},{"name":"email","type":"string"},{"name":"isRegistered","type":"bool"}]},
  {"type":"function","name":"isUserRegistered","stateMutability":"view","inputs":[{"name":"userAddress","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]}
]`

const (
	BuiltinGymCoin     = "gymcoin"
	BuiltinUserProfile = "userprofile"
)

func init() {
	registerBuiltin(Builtin{
		ID:          BuiltinGymCoin,
		Name:        "GymCoin",
		Description: "GC exchange token with owner-set buy/sell rates",
		JSON:        gymCoinABIJSON,
	})
	registerBuiltin(Builtin{
		ID:          BuiltinUserProfile,
		Name:        "UserProfile",
		Description: "Gym member registry (username, email)",
		JSON:        userProfileABIJSON,
	})
}
