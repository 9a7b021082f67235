package content

var quotes = []string{
	"☢️ Initiating NUKEM sequence!",
	"🎯 Target acquired. NUKEM incoming!",
	"🚀 Launching the big one!",
	"🔥 Prepare for annihilation!",
	"💀 Dust off, it's NUKEM time!",
}

var ratings = []Rating{
	{Score: 1, Text: "1/10 📉 - Needs more radioactive material."},
	{Score: 3, Text: "3/10 🟡 - A bit of a dud."},
	{Score: 5, Text: "5/10 🎯 - Decent blast radius."},
	{Score: 7, Text: "7/10 🔥 - Now we're talking!"},
	{Score: 10, Text: "10/10 ⭐ - Absolutely devastating! Magnificent!"},
	{Score: 9000, Text: "Over 9000! 🚀🔥☢️ - It's... it's beautiful!"},
}

var (
	positiveReactions = []string{"🔥", "🚀", "💣", "☢️", "😎", "🎉", "💥", "💯"}
	negativeReactions = []string{"⛔", "🛡️", "🤔", "👀", "🚫", "🤦‍♂️"}
)

var alienScans = []string{
	"🟢 All clear. No 👽 life signs detected. You're safe... for now.",
	"🟡 Minor energy fluctuations detected. Could be space cows or a very shy 👽.",
	"🔴 High probability of 👽 presence! Shields up! 🛡️",
	"👽🎯 Confirmed 👽 contact! They're asking for our leader... or maybe just sugar.",
	"🧠 Scanners indicate a non-corporeal entity. Spooky 👽!",
}

const defaultTopic = "default"

var topics = map[string]string{
	defaultTopic: "🤖 NUKEM Bot ☢️\n" +
		"Developed by: The NUKEM Command\n" +
		"Purpose: 🛠️ Tactical communication & chat enhancement.\n" +
		"📖 Use /help_nukem for a list of commands.",
	"roadmap":    "🚀 Roadmap: Our top-secret plans for making this bot even more badass! Stay tuned for updates on new features, game integrations, and more ways to kick alien butt.",
	"tokenomics": "📈 Tokenomics: Currently, the NUKEM Bot operates on pure, unadulterated awesomeness (and server resources). No tokens here, just glory!",
	"website":    "🔗 Website: The official NUKEM Bot command center is under construction. Check back soon for a dedicated site!",
}

var arsenal = []Weapon{
	{Key: "pistol", Emoji: "🎯", Name: "M1911 Pistol", Line: "My trusty sidearm. Good for plinkin' pigs or when I'm fresh outta gum."},
	{Key: "shotgun", Emoji: "🔥", Name: "Shotgun", Line: "Close encounters? This baby makes 'em real personal. Spread the love!"},
	{Key: "ripper", Emoji: "⚙️", Name: "Ripper Chaingun", Line: "Time to chew! This thing turns alien scum into swiss cheese faster than you can say 'Hail to the King!'"},
	{Key: "rpg", Emoji: "🚀", Name: "RPG", Line: "For when you absolutely, positively gotta blow everything in the room away. Accept no substitutes!"},
	{Key: "pipebomb", Emoji: "💣", Name: "Pipe Bomb", Line: "Cook 'em, toss 'em, and watch the giblets fly! Heh heh, what a mess."},
	{Key: "freezethrower", Emoji: "👽", Name: "Freezethrower", Line: "Let's kick some ice! Perfect for stopping those hot-headed aliens in their tracks."},
	{Key: "shrinker", Emoji: "🤖", Name: "Shrinker/Expander", Line: "Size matters. Sometimes smaller is better... for stompin'! Then, boom! Back to normal, or bigger!"},
	{Key: "devastator", Emoji: "☢️", Name: "Devastator", Line: "Dual-barreled rocket mayhem! If one rocket ain't enough, two oughta do the trick. Twice the fun, twice the destruction!"},
	{Key: "tripbomb", Emoji: "⚠️", Name: "Laser Tripbomb", Line: "Surprise! Set these babies up and watch the fireworks when some unsuspecting alien schmuck walks by. Always a classic."},
}

var rejections = []string{
	"⛔ Nice try, pencil-neck. This command's for the 👑 big boys.",
	"🛡️ Whoa there, slick. You ain't got the clearance for that. Access denied.",
	"🎯 Access denied. Go cry to your mama. This is restricted airspace!",
}

var slowDowns = []string{
	"⏱️ Hold your horses, commander! You're sending commands too quickly. Try again in a few seconds.",
	"🚀 Woah there, partner! You're burnin' fuel too fast! Try again in a sec.",
	"🛡️ My circuits are smokin' from your requests! Give it a rest, maggot!",
	"👽 Even aliens need a coffee break. You're rate limited!",
}

// OutOfGum — реакция на «gum» в чате.
const OutOfGum = "💣 I'm here to kick ass and chew bubble gum... and I'm all outta gum."
