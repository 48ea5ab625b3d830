package retrieval

// DefaultCorpus is the built-in knowledge loaded on first startup, when the
// store is empty. Editing these passages only affects fresh deployments;
// an existing knowledge base must be reset before it picks up changes.
func DefaultCorpus() []string {
	return []string{
		`Our espresso is pulled from a seasonal house blend of washed Ethiopian and
natural Brazilian beans, roasted to a medium profile. Standard shots are double
(18g in, 36g out, 27-30 seconds). Decaf espresso uses a Swiss Water process
Colombian and is available for every espresso drink at no extra charge.`,

		`Milk options: whole, skim, oat, almond, and soy. Oat milk is the default
recommendation for plant-based drinks because it steams closest to dairy.
Almond and soy drinks are prepared on a dedicated steam wand on request for
guests with severe allergies, but cross-contact cannot be fully excluded.`,

		`Drink sizes are small (8oz), medium (12oz), and large (16oz). Espresso
drinks larger than medium receive an extra shot. Iced drinks are built over a
full cup of ice and shaken, not stirred, except for iced lattes.`,

		`The loyalty program earns one star per drink purchased through the app or
by scanning the member QR code at the register. Ten stars redeem any handcrafted
drink of any size. Stars expire six months after they are earned. Redemptions
cannot be combined with other discounts.`,

		`Pour-over brewing guide: 1:16 coffee to water ratio, medium-coarse grind,
water at 94 degrees Celsius. Bloom with twice the coffee weight in water for
45 seconds, then pour in slow spirals to a 3 minute total brew time. We serve
pour-overs of our two rotating single origins; ask which are on the bar today.`,

		`Allergen information: drinks containing dairy, nuts (almond milk), and soy
are prepared in a shared space. Our pastries are delivered daily from a bakery
that handles gluten, eggs, nuts, and sesame. A full allergen matrix per item is
available at the register and on the website under Menu > Allergens.`,

		`Opening hours: Monday to Friday 6:30-19:00, Saturday 7:30-19:00, Sunday
8:00-17:00. The kitchen stops serving warm food 30 minutes before close.
On public holidays we run Sunday hours unless posted otherwise.`,

		`Cold brew is steeped for 18 hours in small batches and kegged on nitro.
It is roughly 30% higher in caffeine per ounce than iced filter coffee. Nitro
cold brew is served without ice and unsweetened by default.`,

		`Seasonal menu: autumn features a maple cortado and a spiced pumpkin latte
made with real pumpkin puree rather than syrup. Seasonal drinks can be made
with any milk and are available decaf. Seasonal items leave the menu on the
first Monday of December.`,

		`Whole bean bags (250g) of the house blend and both rotating single origins
are available at the register. We grind to order for any brew method. Bags are
roasted on Mondays; the roast date is printed on the bottom of every bag.`,
	}
}
