package recipe

import (
	"time"

	"github.com/hammamikhairi/ottobrowse/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ingredients(pairs ...string) []domain.Ingredient {
	out := make([]domain.Ingredient, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Ingredient{Name: pairs[i], Amount: pairs[i+1]})
	}
	return out
}

// Builtin returns the recipes every source can be seeded with.
func Builtin() []domain.Recipe {
	return []domain.Recipe{
		{
			ID:          "chicken-alfredo",
			Title:       "Chicken Alfredo",
			Description: "Creamy spaghetti alfredo with pan-seared chicken. Rich, indulgent, and not from a jar.",
			Category:    "Main Course",
			Tags:        []string{"pasta", "italian", "comfort"},
			Ingredients: ingredients(
				"spaghetti", "200 g",
				"chicken breast", "2",
				"garlic", "3 cloves",
				"butter", "2 tbsp",
				"heavy cream", "1 cup",
				"parmesan", "1 cup grated",
			),
			Instructions: []string{
				"Bring a large pot of salted water to a boil and cook the spaghetti until al dente.",
				"Season the chicken and sear it in a hot pan until golden, about 6 minutes a side.",
				"Melt the butter, add the garlic and cook for 30 seconds.",
				"Add the cream and simmer until slightly thickened, then stir in the parmesan.",
				"Toss the pasta in the sauce, slice the chicken and serve on top.",
			},
			PrepMinutes: 10,
			CookMinutes: 25,
			Servings:    2,
			Published:   day(2023, time.March, 14),
		},
		{
			ID:          "vegetable-stir-fry",
			Title:       "Vegetable Stir Fry",
			Description: "Fast, crunchy, and customizable. The key is a screaming hot pan and not overcrowding it.",
			Category:    "Main Course",
			Tags:        []string{"asian", "vegetables", "quick", "vegan", "healthy"},
			Ingredients: ingredients(
				"bell pepper", "1 large",
				"broccoli florets", "2 cups",
				"carrot", "1",
				"snap peas", "1 cup",
				"garlic", "3 cloves",
				"fresh ginger", "1 tbsp grated",
				"soy sauce", "2 tbsp",
				"sesame oil", "1 tbsp",
			),
			Instructions: []string{
				"Prep all vegetables before the pan goes on.",
				"Mix soy sauce and sesame oil with 2 tablespoons of water.",
				"Heat the wok on high until it just starts to smoke.",
				"Stir-fry broccoli and carrot for 2 minutes, then pepper and snap peas for 2 more.",
				"Add garlic and ginger, cook until fragrant, then pour over the sauce and toss.",
			},
			PrepMinutes: 15,
			CookMinutes: 8,
			Servings:    2,
			Published:   day(2022, time.November, 2),
		},
		{
			ID:          "chocolate-lava-cake",
			Title:       "Chocolate Lava Cake",
			Description: "Individual cakes with a molten centre.",
			Category:    "Dessert",
			Tags:        []string{"chocolate", "baking", "vegetarian"},
			Ingredients: ingredients(
				"dark chocolate", "120 g",
				"butter", "100 g",
				"eggs", "2",
				"sugar", "60 g",
				"flour", "2 tbsp",
			),
			Instructions: []string{
				"Preheat the oven to 220C and butter four ramekins.",
				"Melt the chocolate and butter together.",
				"Whisk eggs and sugar until pale, then fold in the chocolate and flour.",
				"Bake for 12 minutes and turn out while hot.",
			},
			PrepMinutes: 15,
			CookMinutes: 12,
			Servings:    4,
			Published:   day(2021, time.February, 11),
		},
		{
			ID:          "apple-crumble",
			Title:       "Apple Crumble",
			Description: "Sharp apples under a buttery oat topping.",
			Category:    "Dessert",
			Tags:        []string{"baking", "fruit", "vegetarian", "autumn"},
			Ingredients: ingredients(
				"apples", "6",
				"brown sugar", "80 g",
				"rolled oats", "100 g",
				"flour", "100 g",
				"butter", "100 g cold",
				"cinnamon", "1 tsp",
			),
			Instructions: []string{
				"Peel, core and slice the apples, then toss with cinnamon and half the sugar.",
				"Rub the butter into the flour, oats and remaining sugar.",
				"Scatter the topping over the apples.",
				"Bake in the oven at 190C for 40 minutes until golden and bubbling.",
			},
			PrepMinutes: 20,
			CookMinutes: 40,
			Servings:    6,
			Published:   day(2020, time.October, 5),
		},
		{
			ID:          "vegan-lentil-soup",
			Title:       "Spiced Lentil Soup",
			Description: "A thick, warming red lentil soup.",
			Category:    "Soup",
			Tags:        []string{"vegan", "healthy", "spicy", "budget"},
			Ingredients: ingredients(
				"red lentils", "250 g",
				"onion", "1",
				"garlic", "2 cloves",
				"cumin", "2 tsp",
				"chilli flakes", "1/2 tsp",
				"vegetable stock", "1.2 l",
				"lemon", "1",
			),
			Instructions: []string{
				"Soften the onion and garlic in a little oil.",
				"Add the cumin and chilli and fry for a minute.",
				"Add the lentils and stock and simmer for 20 minutes.",
				"Blend until smooth and finish with lemon juice.",
			},
			PrepMinutes: 10,
			CookMinutes: 25,
			Servings:    4,
			Published:   day(2024, time.January, 20),
		},
		{
			ID:          "tomato-soup",
			Title:       "Roasted Tomato Soup",
			Description: "Oven-roasted tomatoes blended with basil.",
			Category:    "Soup",
			Tags:        []string{"vegetarian", "summer"},
			Ingredients: ingredients(
				"tomatoes", "1 kg",
				"garlic", "1 head",
				"olive oil", "3 tbsp",
				"basil", "1 bunch",
				"cream", "50 ml",
			),
			Instructions: []string{
				"Halve the tomatoes and roast in the oven with the garlic for 45 minutes.",
				"Squeeze out the garlic and blend with the tomatoes and basil.",
				"Warm through and stir in the cream.",
			},
			PrepMinutes: 10,
			CookMinutes: 50,
			Servings:    4,
			Published:   day(2023, time.August, 1),
		},
		{
			ID:          "shakshuka",
			Title:       "Shakshuka",
			Description: "Eggs poached in a spiced pepper and tomato sauce.",
			Category:    "Breakfast",
			Tags:        []string{"vegetarian", "spicy", "one-pan"},
			Ingredients: ingredients(
				"eggs", "4",
				"canned tomatoes", "400 g",
				"red pepper", "1",
				"onion", "1",
				"paprika", "1 tsp",
				"cumin", "1 tsp",
			),
			Instructions: []string{
				"Cook the onion and pepper until soft.",
				"Add spices and tomatoes and simmer for 10 minutes.",
				"Make wells and crack in the eggs.",
				"Cover and cook until the whites are set.",
			},
			PrepMinutes: 10,
			CookMinutes: 20,
			Servings:    2,
			Published:   day(2024, time.May, 9),
		},
		{
			ID:          "overnight-oats",
			Title:       "Overnight Oats",
			Description: "No-cook breakfast that waits for you in the fridge.",
			Category:    "Breakfast",
			Tags:        []string{"vegan", "quick", "no-cook"},
			Ingredients: ingredients(
				"rolled oats", "50 g",
				"oat milk", "150 ml",
				"chia seeds", "1 tbsp",
				"maple syrup", "1 tsp",
				"berries", "a handful",
			),
			Instructions: []string{
				"Stir oats, milk, chia and maple syrup together in a jar.",
				"Refrigerate overnight and top with berries.",
			},
			PrepMinutes: 5,
			CookMinutes: 0,
			Servings:    1,
			Published:   day(2024, time.March, 3),
		},
		{
			ID:          "beef-chili",
			Title:       "Beef Chili",
			Description: "Slow-simmered chili with beans.",
			Category:    "Main Course",
			Tags:        []string{"spicy", "comfort", "batch"},
			Ingredients: ingredients(
				"ground beef", "500 g",
				"kidney beans", "400 g",
				"canned tomatoes", "800 g",
				"onion", "2",
				"garlic", "3 cloves",
				"chili powder", "2 tbsp",
			),
			Instructions: []string{
				"Brown the beef in batches and set aside.",
				"Cook the onion and garlic until soft.",
				"Add the chili powder, tomatoes and beef.",
				"Simmer gently for 90 minutes.",
				"Stir in the beans and cook 15 minutes more.",
				"Rest for 10 minutes before serving.",
			},
			PrepMinutes: 20,
			CookMinutes: 105,
			Servings:    6,
			Published:   day(2019, time.December, 1),
		},
		{
			ID:          "greek-salad",
			Title:       "Greek Salad",
			Description: "Tomatoes, cucumber, olives and feta.",
			Category:    "Salad",
			Tags:        []string{"vegetarian", "quick", "summer", "no-cook"},
			Ingredients: ingredients(
				"tomatoes", "4",
				"cucumber", "1",
				"red onion", "1/2",
				"kalamata olives", "a handful",
				"feta", "200 g",
				"olive oil", "3 tbsp",
			),
			Instructions: []string{
				"Chop the vegetables into large chunks.",
				"Top with olives and a slab of feta, then dress with olive oil.",
			},
			PrepMinutes: 15,
			CookMinutes: 0,
			Servings:    2,
			Published:   day(2022, time.July, 18),
		},
		{
			ID:          "garlic-bread",
			Title:       "Garlic Bread",
			Description: "Crisp baguette with garlic butter.",
			Category:    "Side",
			Tags:        []string{"vegetarian", "baking", "quick"},
			Ingredients: ingredients(
				"baguette", "1",
				"butter", "100 g soft",
				"garlic", "4 cloves",
				"parsley", "2 tbsp chopped",
			),
			Instructions: []string{
				"Mash the butter with the garlic and parsley.",
				"Slice the baguette, spread with the butter and bake in the oven for 10 minutes.",
			},
			PrepMinutes: 5,
			CookMinutes: 10,
			Servings:    4,
			Published:   day(2021, time.June, 30),
		},
		{
			ID:          "banana-bread",
			Title:       "Banana Bread",
			Description: "Moist loaf for overripe bananas.",
			Category:    "Dessert",
			Tags:        []string{"baking", "fruit", "vegetarian"},
			Ingredients: ingredients(
				"ripe bananas", "3",
				"flour", "250 g",
				"sugar", "100 g",
				"eggs", "2",
				"butter", "75 g melted",
				"baking soda", "1 tsp",
			),
			Instructions: []string{
				"Preheat the oven to 180C and line a loaf tin.",
				"Mash the bananas and mix with the melted butter, sugar and eggs.",
				"Fold in the flour and baking soda.",
				"Bake for 60 minutes until a skewer comes out clean.",
				"Cool in the tin for 10 minutes.",
			},
			PrepMinutes: 15,
			CookMinutes: 60,
			Servings:    8,
			Published:   day(2020, time.April, 22),
		},
	}
}
