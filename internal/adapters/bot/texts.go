package bot

import (
	"strings"

	"nukem-bot/internal/adapters/telegram"
)

const startText = "👋 Yo\\! The Duke is in the house\\! 😎\n" +
	"Ready to kick ass and chew bubble gum\\.\\.\\. and I'm all outta gum\\.\n" +
	"If you're an 👑 admin, type `/help_nukem` for the full arsenal\\. " +
	"Everyone else, try not to get any on ya\\. 🚀"

type helpLine struct {
	usage string
	desc  string
}

type helpSection struct {
	title string
	lines []helpLine
}

var helpSections = []helpSection{
	{title: "⚙️ Basic Operations:", lines: []helpLine{
		{"/mentionall <message>", "📢 Yell at everyone. Use sparingly, or I'll use you for target practice."},
		{"/mention @user1 @user2 <message>", "🎯 Point your finger at specific chumps."},
		{"/pin_nukem <message_or_reply>", "🛠️ Make somethin' stick. Like gum to a boot."},
		{"/info [topic]", "ℹ️ Get the damn intel (e.g., roadmap, tokenomics, website)."},
		{"/nukem_quote", "🧠 A dose of pure, unadulterated wisdom from yours truly."},
		{"/rate_my_play <description>", "⭐ Let the Duke judge your so-called 'skills'."},
		{"/arsenal [weapon_name]", "🛠️ Check out my boomsticks."},
		{"/alien_scan", "👽 Check if any green-blooded freaks are sniffin' around."},
	}},
	{title: "👤 User Management & Karma:", lines: []helpLine{
		{"/list_users", "📜 See who's on my list."},
		{"/sync_users", "🔄 Reload the brass: admin list and chat admins."},
		{"/karma [@user]", "❓ Check someone's karma level."},
		{"/give_karma @user [reason]", "📈 Award karma to a worthy soldier."},
		{"/remove_karma @user [reason]", "📉 Take karma from a disappointment."},
		{"/leaderboard [karma|activity]", "🏆 Who's kicking the most ass."},
	}},
	{title: "🛡️ Moderation Arsenal:", lines: []helpLine{
		{"/warn @user [reason]", "⚠️ Issue a warning to a troublemaker."},
		{"/unwarn @user", "✅ Remove a warning if they've learned their lesson."},
		{"/warnings [@user]", "ℹ️ Check someone's rap sheet."},
		{"/mute @user <duration> [reason]", "⛔ Shut someone up (e.g., 10m, 1h, 1d, 0 = forever)."},
		{"/unmute @user", "💬 Let 'em talk again."},
	}},
	{title: "🏆 Stats & Glory:", lines: []helpLine{
		{"/stats", "📈 See how much ass this bot has kicked."},
	}},
}

func helpText() string {
	var b strings.Builder
	b.WriteString("📖 👑 *Alright, maggots, listen up\\! Here's the NUKEM command console:*\n\n")
	for i, section := range helpSections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("*" + telegram.EscapeMarkdownV2(section.title) + "*\n")
		for _, line := range section.lines {
			b.WriteString("`" + telegram.EscapeCode(line.usage) + "` \\- " + telegram.EscapeMarkdownV2(line.desc) + "\n")
		}
	}
	return b.String()
}
